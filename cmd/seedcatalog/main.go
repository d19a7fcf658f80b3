// seedcatalog fills an empty store with a small demo catalog.
// Usage: go run ./cmd/seedcatalog
package main

import (
	"context"
	"strings"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/config"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/router"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const materialsCSV = `name,article,unit,price
Particle board 16mm,LDSP-16,m2,12.40
MDF 18mm,MDF-18,m2,18.90
Edge band 2mm,EDGE-2,m,0.65
Hinge soft-close,HNG-SC,pcs,3.20
Drawer runner 450,RUN-450,pair,7.80
Handle bar 128,HDL-128,pcs,2.10
`

type demoProduct struct {
	name, article string
	lines         map[string]string // article -> quantity
}

var demoProducts = []demoProduct{
	{"Wall cabinet 600", "WC-600", map[string]string{"LDSP-16": "1.8", "EDGE-2": "6", "HNG-SC": "2", "HDL-128": "1"}},
	{"Base cabinet 800", "BC-800", map[string]string{"LDSP-16": "2.6", "MDF-18": "0.6", "EDGE-2": "9", "RUN-450": "2", "HDL-128": "2"}},
	{"Chest of drawers", "CD-3", map[string]string{"LDSP-16": "3.1", "EDGE-2": "12", "RUN-450": "3", "HDL-128": "3"}},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.StoreDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	ctx := context.Background()
	svcs := router.NewServices(cfg, router.Deps{Store: infra.NewGormStore(db), DB: db})

	existing, err := svcs.Materials.List(ctx, dto.MaterialFilter{})
	if err != nil {
		log.Fatal().Err(err).Msg("list materials")
	}
	if len(existing) > 0 {
		log.Info().Int("materials", len(existing)).Msg("store is not empty, nothing to seed")
		return
	}

	res, err := svcs.Materials.ImportCSV(ctx, strings.NewReader(materialsCSV))
	if err != nil {
		log.Fatal().Err(err).Msg("import materials")
	}
	log.Info().Int("created", res.Created).Msg("materials seeded")

	cabinets, err := svcs.Rules.CreateProductType(ctx, dto.ProductTypeRequest{
		Name: "Cabinets", MarkupPercent: decimal.NewFromInt(40), LaborCost: decimal.NewFromInt(25),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create product type")
	}
	labor := decimal.NewFromInt(10)
	matte, err := svcs.Rules.CreateFinishType(ctx, dto.FinishTypeRequest{
		Name: "Matte lacquer", MarkupPercent: decimal.NewFromInt(15), LaborCost: &labor,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create finish type")
	}
	kitchen, err := svcs.Collections.Create(ctx, dto.CreateCollectionRequest{Name: "Kitchen Basic"})
	if err != nil {
		log.Fatal().Err(err).Msg("create collection")
	}

	materials, err := svcs.Materials.List(ctx, dto.MaterialFilter{})
	if err != nil {
		log.Fatal().Err(err).Msg("list materials")
	}
	byArticle := make(map[string]string, len(materials))
	for _, m := range materials {
		byArticle[model.ArticleKey(m.Article)] = m.ID
	}

	for _, p := range demoProducts {
		req := dto.CreateProductRequest{
			Name:          p.name,
			Article:       p.article,
			ProductTypeID: &cabinets.ID,
			FinishTypeID:  &matte.ID,
			CollectionID:  &kitchen.ID,
		}
		for article, qty := range p.lines {
			req.BillOfMaterials = append(req.BillOfMaterials, dto.BOMLineRequest{
				MaterialID: byArticle[model.ArticleKey(article)],
				Quantity:   decimal.RequireFromString(qty),
			})
		}
		created, err := svcs.Products.Create(ctx, req)
		if err != nil {
			log.Fatal().Err(err).Str("article", p.article).Msg("create product")
		}
		log.Info().Str("article", p.article).Str("price", created.Price.FinalPrice.StringFixed(2)).Msg("product seeded")
	}
}
