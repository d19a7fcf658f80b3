package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/assist"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/pricing"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ProductService defines business operations for products and their tech
// cards.
type ProductService interface {
	List(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, error)
	Get(ctx context.Context, id string) (*dto.ProductResponse, error)
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Update(ctx context.Context, id string, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, id string) error

	AddBOMLine(ctx context.Context, id string, req dto.BOMLineRequest) (*dto.ProductResponse, error)
	SetBOMQuantity(ctx context.Context, id, lineID, raw string) (*dto.ProductResponse, error)
	RemoveBOMLine(ctx context.Context, id, lineID string) (*dto.ProductResponse, error)

	Suggest(ctx context.Context, id string, req dto.SuggestRequest) (*dto.SuggestResponse, error)
	ApplySuggestion(ctx context.Context, id string, req dto.ApplySuggestionRequest) (*dto.ApplySuggestionResult, error)

	Priced(ctx context.Context) (*dto.PricedCatalogResponse, error)
}

type productService struct {
	repo        repository.ProductRepository
	materials   repository.MaterialRepository
	collections repository.CollectionRepository
	catalog     catalogReader
	chain       *assist.Chain
	audit       AuditService
	notifier    ChangeNotifier
	now         func() time.Time
}

func NewProductService(
	repo repository.ProductRepository,
	materials repository.MaterialRepository,
	rules repository.RuleRepository,
	collections repository.CollectionRepository,
	chain *assist.Chain,
	audit AuditService,
	notifier ChangeNotifier,
) ProductService {
	if chain == nil {
		chain = assist.NewChain(0)
	}
	return &productService{
		repo:        repo,
		materials:   materials,
		collections: collections,
		catalog:     catalogReader{materials: materials, rules: rules, collections: collections},
		chain:       chain,
		audit:       audit,
		notifier:    notifierOrNop(notifier),
		now:         time.Now,
	}
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.catalog.load(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		if filter.CollectionID != "" && (p.CollectionID == nil || *p.CollectionID != filter.CollectionID) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Article), q) {
			continue
		}
		out = append(out, snap.view(p))
	}
	return out, nil
}

func (s *productService) Get(ctx context.Context, id string) (*dto.ProductResponse, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	i := indexProduct(products, id)
	if i < 0 {
		return nil, notFound("product", id)
	}
	return s.present(ctx, products[i])
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(req.Name)
	article := strings.TrimSpace(req.Article)
	if name == "" || article == "" {
		return nil, invalid("name and article are required")
	}

	now := s.now().UTC()
	p := model.Product{
		ID:              uuid.NewString(),
		Name:            name,
		Article:         article,
		BillOfMaterials: []model.BOMItem{},
		CollectionID:    blankToNil(req.CollectionID),
		ProductTypeID:   blankToNil(req.ProductTypeID),
		FinishTypeID:    blankToNil(req.FinishTypeID),
		ImageURL:        blankToNil(req.ImageURL),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, line := range req.BillOfMaterials {
		if !line.Quantity.IsPositive() {
			return nil, invalid("quantity for material %s must be positive", line.MaterialID)
		}
		addLine(&p, line.MaterialID, line.Quantity)
	}

	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if productArticleTaken(products, article, "") {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateArticle, article)
	}
	products = append(products, p)
	if err := s.repo.SaveAll(ctx, products); err != nil {
		return nil, err
	}
	if err := s.moveMembership(ctx, p.ID, nil, p.CollectionID); err != nil {
		return nil, err
	}

	s.committed(ctx, "create", p.ID, p.Article)
	return s.present(ctx, p)
}

func (s *productService) Update(ctx context.Context, id string, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if req.Article != nil {
		products, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		if article := strings.TrimSpace(*req.Article); article != "" && productArticleTaken(products, article, id) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateArticle, article)
		}
	}
	var before *string
	p, err := s.mutate(ctx, id, func(p *model.Product) error {
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return invalid("name must not be empty")
			}
			p.Name = name
		}
		if req.Article != nil {
			article := strings.TrimSpace(*req.Article)
			if article == "" {
				return invalid("article must not be empty")
			}
			p.Article = article
		}
		before = p.CollectionID
		if req.CollectionID != nil {
			p.CollectionID = blankToNil(req.CollectionID)
		}
		if req.ProductTypeID != nil {
			p.ProductTypeID = blankToNil(req.ProductTypeID)
		}
		if req.FinishTypeID != nil {
			p.FinishTypeID = blankToNil(req.FinishTypeID)
		}
		if req.ImageURL != nil {
			p.ImageURL = blankToNil(req.ImageURL)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if req.CollectionID != nil {
		if err := s.moveMembership(ctx, id, before, p.CollectionID); err != nil {
			return nil, err
		}
	}
	s.committed(ctx, "update", id, p.Article)
	return s.present(ctx, *p)
}

// Delete removes the product together with its tech card, then drops its id
// from every collection. The two writes are sequenced, not atomic.
func (s *productService) Delete(ctx context.Context, id string) error {
	products, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	i := indexProduct(products, id)
	if i < 0 {
		return notFound("product", id)
	}
	article := products[i].Article
	products = append(products[:i], products[i+1:]...)
	if err := s.repo.SaveAll(ctx, products); err != nil {
		return err
	}

	collections, err := s.collections.List(ctx)
	if err != nil {
		return err
	}
	changed := false
	for ci := range collections {
		if removeID(&collections[ci].ProductOrder, id) {
			collections[ci].UpdatedAt = s.now().UTC()
			changed = true
		}
	}
	if changed {
		if err := s.collections.SaveAll(ctx, collections); err != nil {
			return fmt.Errorf("product deleted but collections not updated: %w", err)
		}
	}

	s.committed(ctx, "delete", id, article)
	return nil
}

// AddBOMLine adds a material to the tech card. If the material is already
// on it, the quantities are summed.
func (s *productService) AddBOMLine(ctx context.Context, id string, req dto.BOMLineRequest) (*dto.ProductResponse, error) {
	if !req.Quantity.IsPositive() {
		return nil, invalid("quantity must be positive")
	}
	materials, err := s.materials.List(ctx)
	if err != nil {
		return nil, err
	}
	if indexMaterial(materials, req.MaterialID) < 0 {
		return nil, notFound("material", req.MaterialID)
	}
	p, err := s.mutate(ctx, id, func(p *model.Product) error {
		addLine(p, req.MaterialID, req.Quantity)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, "update", id, "bom add "+req.MaterialID)
	return s.present(ctx, *p)
}

// SetBOMQuantity stores the editor's raw text for a line, clamped to 0.
func (s *productService) SetBOMQuantity(ctx context.Context, id, lineID, raw string) (*dto.ProductResponse, error) {
	qty := ParseDraftQuantity(raw)
	p, err := s.mutate(ctx, id, func(p *model.Product) error {
		for i := range p.BillOfMaterials {
			if p.BillOfMaterials[i].LineID == lineID {
				p.BillOfMaterials[i].Quantity = qty
				return nil
			}
		}
		return notFound("bom line", lineID)
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, "update", id, "bom quantity "+lineID)
	return s.present(ctx, *p)
}

func (s *productService) RemoveBOMLine(ctx context.Context, id, lineID string) (*dto.ProductResponse, error) {
	p, err := s.mutate(ctx, id, func(p *model.Product) error {
		for i := range p.BillOfMaterials {
			if p.BillOfMaterials[i].LineID == lineID {
				p.BillOfMaterials = append(p.BillOfMaterials[:i], p.BillOfMaterials[i+1:]...)
				return nil
			}
		}
		return notFound("bom line", lineID)
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, "update", id, "bom remove "+lineID)
	return s.present(ctx, *p)
}

// Suggest asks the text-generation chain for a tech card. It always answers;
// Fallback is set when a remote strategy failed along the way.
func (s *productService) Suggest(ctx context.Context, id string, req dto.SuggestRequest) (*dto.SuggestResponse, error) {
	view, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	materials, err := s.materials.List(ctx)
	if err != nil {
		return nil, err
	}
	catalog := make([]assist.CatalogMaterial, 0, len(materials))
	for _, m := range materials {
		catalog = append(catalog, assist.CatalogMaterial{Name: m.Name, Article: m.Article, Unit: m.Unit})
	}

	in := assist.TechcardInput{
		ProductName:      view.Name,
		Brief:            strings.TrimSpace(req.Brief),
		MaterialsCatalog: catalog,
	}
	if view.TypeName != pricing.NoneLabel {
		in.TypeName = view.TypeName
	}
	if view.FinishName != pricing.NoneLabel {
		in.FinishName = view.FinishName
	}
	res := s.chain.SuggestTechcard(ctx, in)

	items := make([]dto.SuggestionItem, 0, len(res.Value.Items))
	for _, it := range res.Value.Items {
		items = append(items, dto.SuggestionItem{Name: it.Name, Article: it.Article, Quantity: it.Quantity, Unit: it.Unit})
	}
	return &dto.SuggestResponse{Items: items, Source: res.Source, Fallback: res.FellBack()}, nil
}

// ApplySuggestion turns suggested items into tech-card lines. Items are
// matched to materials by article first, then by name; both are
// case-insensitive. Unmatched items are reported and otherwise ignored.
func (s *productService) ApplySuggestion(ctx context.Context, id string, req dto.ApplySuggestionRequest) (*dto.ApplySuggestionResult, error) {
	materials, err := s.materials.List(ctx)
	if err != nil {
		return nil, err
	}
	byArticle := make(map[string]string, len(materials))
	byName := make(map[string]string, len(materials))
	for _, m := range materials {
		byArticle[model.ArticleKey(m.Article)] = m.ID
		byName[strings.ToLower(strings.TrimSpace(m.Name))] = m.ID
	}

	result := &dto.ApplySuggestionResult{}
	p, err := s.mutate(ctx, id, func(p *model.Product) error {
		for _, it := range req.Items {
			if !it.Quantity.IsPositive() {
				result.Unmatched = append(result.Unmatched, it.Name)
				continue
			}
			matID, ok := "", false
			if it.Article != "" {
				matID, ok = byArticle[model.ArticleKey(it.Article)]
			}
			if !ok {
				matID, ok = byName[strings.ToLower(strings.TrimSpace(it.Name))]
			}
			if !ok {
				result.Unmatched = append(result.Unmatched, it.Name)
				continue
			}
			addLine(p, matID, it.Quantity)
			result.Matched++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Matched > 0 {
		s.committed(ctx, "update", id, fmt.Sprintf("suggestion applied: %d lines", result.Matched))
	}
	view, err := s.present(ctx, *p)
	if err != nil {
		return nil, err
	}
	result.Product = *view
	return result, nil
}

func (s *productService) Priced(ctx context.Context) (*dto.PricedCatalogResponse, error) {
	products, err := s.List(ctx, dto.ProductFilter{})
	if err != nil {
		return nil, err
	}
	resp := &dto.PricedCatalogResponse{Products: products, Total: decimal.Zero}
	for _, p := range products {
		resp.Total = resp.Total.Add(p.Price.FinalPrice)
		resp.UnresolvedLines += len(p.Price.UnresolvedLines)
	}
	return resp, nil
}

// mutate loads, patches and saves a single product.
func (s *productService) mutate(ctx context.Context, id string, patch func(*model.Product) error) (*model.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	i := indexProduct(products, id)
	if i < 0 {
		return nil, notFound("product", id)
	}
	p := products[i].Clone()
	if err := patch(&p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now().UTC()
	products[i] = p
	if err := s.repo.SaveAll(ctx, products); err != nil {
		return nil, err
	}
	return &p, nil
}

func productArticleTaken(all []model.Product, article, exceptID string) bool {
	key := model.ArticleKey(article)
	for _, p := range all {
		if p.ID != exceptID && model.ArticleKey(p.Article) == key {
			return true
		}
	}
	return false
}

// moveMembership keeps collection product orders in step with a product's
// collection reference. Unknown collection ids are left dangling.
func (s *productService) moveMembership(ctx context.Context, productID string, from, to *string) error {
	if sameRef(from, to) {
		return nil
	}
	collections, err := s.collections.List(ctx)
	if err != nil {
		return err
	}
	changed := false
	for i := range collections {
		c := &collections[i]
		switch {
		case from != nil && c.ID == *from:
			if removeID(&c.ProductOrder, productID) {
				c.UpdatedAt = s.now().UTC()
				changed = true
			}
		case to != nil && c.ID == *to && !c.Contains(productID):
			c.ProductOrder = append(c.ProductOrder, productID)
			c.UpdatedAt = s.now().UTC()
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.collections.SaveAll(ctx, collections)
}

func (s *productService) present(ctx context.Context, p model.Product) (*dto.ProductResponse, error) {
	snap, err := s.catalog.load(ctx)
	if err != nil {
		return nil, err
	}
	v := snap.view(p)
	return &v, nil
}

func (s *productService) committed(ctx context.Context, action, id, details string) {
	s.audit.Record(ctx, action, "product", id, details)
	s.notifier.Notify(eventType(action), "product", id)
	log.Debug().Str("action", action).Str("product_id", id).Msg("product: committed")
}

// ParseDraftQuantity reads a quantity typed by a user. Anything unparsable or
// negative becomes 0.
func ParseDraftQuantity(raw string) decimal.Decimal {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// addLine merges qty into the line for materialID, creating it if needed.
func addLine(p *model.Product, materialID string, qty decimal.Decimal) {
	if i := p.LineFor(materialID); i >= 0 {
		p.BillOfMaterials[i].Quantity = p.BillOfMaterials[i].Quantity.Add(qty)
		return
	}
	p.BillOfMaterials = append(p.BillOfMaterials, model.BOMItem{
		LineID:     uuid.NewString(),
		MaterialID: materialID,
		Quantity:   qty,
	})
}

func indexProduct(all []model.Product, id string) int {
	for i, p := range all {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func removeID(ids *[]string, id string) bool {
	for i, v := range *ids {
		if v == id {
			*ids = append((*ids)[:i], (*ids)[i+1:]...)
			return true
		}
	}
	return false
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// sortedKeys is used for deterministic error output.
func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
