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
	"github.com/33hpS/PRISE-WAS-PRO2/internal/repository"

	"github.com/google/uuid"
)

// CollectionService manages curated, ordered product groupings.
type CollectionService interface {
	List(ctx context.Context, filter dto.CollectionFilter) ([]dto.CollectionResponse, error)
	Resolve(ctx context.Context, id string) (*dto.CollectionResponse, error)
	Create(ctx context.Context, req dto.CreateCollectionRequest) (*dto.CollectionResponse, error)
	Update(ctx context.Context, id string, req dto.UpdateCollectionRequest) (*dto.CollectionResponse, error)
	Delete(ctx context.Context, id string) error
	AddProduct(ctx context.Context, id, productID string) (*dto.CollectionResponse, error)
	RemoveProduct(ctx context.Context, id, productID string) (*dto.CollectionResponse, error)
	Reorder(ctx context.Context, id string, order []string) (*dto.CollectionResponse, error)
	GenerateDescription(ctx context.Context, id string, apply bool) (*dto.DescribeResponse, error)
}

type collectionService struct {
	repo     repository.CollectionRepository
	products repository.ProductRepository
	catalog  catalogReader
	chain    *assist.Chain
	audit    AuditService
	notifier ChangeNotifier
	now      func() time.Time
}

func NewCollectionService(
	repo repository.CollectionRepository,
	products repository.ProductRepository,
	materials repository.MaterialRepository,
	rules repository.RuleRepository,
	chain *assist.Chain,
	audit AuditService,
	notifier ChangeNotifier,
) CollectionService {
	if chain == nil {
		chain = assist.NewChain(0)
	}
	return &collectionService{
		repo:     repo,
		products: products,
		catalog:  catalogReader{materials: materials, rules: rules, collections: repo},
		chain:    chain,
		audit:    audit,
		notifier: notifierOrNop(notifier),
		now:      time.Now,
	}
}

// List returns pinned collections first, then by name. Archived collections
// are included only on request.
func (s *collectionService) List(ctx context.Context, filter dto.CollectionFilter) ([]dto.CollectionResponse, error) {
	collections, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.catalog.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.CollectionResponse, 0, len(collections))
	for _, c := range collections {
		if c.IsArchived && !filter.IncludeArchived {
			continue
		}
		out = append(out, resolve(c, products, snap))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Resolve returns the collection with its live members in display order.
func (s *collectionService) Resolve(ctx context.Context, id string) (*dto.CollectionResponse, error) {
	collections, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	i := indexCollection(collections, id)
	if i < 0 {
		return nil, notFound("collection", id)
	}
	return s.present(ctx, collections[i])
}

func (s *collectionService) Create(ctx context.Context, req dto.CreateCollectionRequest) (*dto.CollectionResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	collections, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	c := model.Collection{
		ID:           uuid.NewString(),
		Name:         name,
		Description:  blankToNil(req.Description),
		Group:        blankToNil(req.Group),
		CoverURL:     blankToNil(req.CoverURL),
		ProductOrder: []string{},
		UpdatedAt:    s.now().UTC(),
	}
	if err := s.repo.SaveAll(ctx, append(collections, c)); err != nil {
		return nil, err
	}
	s.committed(ctx, "create", c.ID, c.Name)
	return s.present(ctx, c)
}

func (s *collectionService) Update(ctx context.Context, id string, req dto.UpdateCollectionRequest) (*dto.CollectionResponse, error) {
	c, err := s.mutate(ctx, id, func(c *model.Collection) error {
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return invalid("name must not be empty")
			}
			c.Name = name
		}
		if req.Description != nil {
			c.Description = blankToNil(req.Description)
		}
		if req.Group != nil {
			c.Group = blankToNil(req.Group)
		}
		if req.CoverURL != nil {
			c.CoverURL = blankToNil(req.CoverURL)
		}
		if req.IsArchived != nil {
			c.IsArchived = *req.IsArchived
		}
		if req.Pinned != nil {
			c.Pinned = *req.Pinned
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, "update", id, c.Name)
	return s.present(ctx, *c)
}

// Delete removes the collection. Products keep their reference, which then
// resolves to no collection.
func (s *collectionService) Delete(ctx context.Context, id string) error {
	collections, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	i := indexCollection(collections, id)
	if i < 0 {
		return notFound("collection", id)
	}
	name := collections[i].Name
	if err := s.repo.SaveAll(ctx, append(collections[:i], collections[i+1:]...)); err != nil {
		return err
	}
	s.committed(ctx, "delete", id, name)
	return nil
}

// AddProduct appends the product to the display order and points its
// collection reference here, leaving any previous collection.
func (s *collectionService) AddProduct(ctx context.Context, id, productID string) (*dto.CollectionResponse, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	pi := indexProduct(products, productID)
	if pi < 0 {
		return nil, notFound("product", productID)
	}

	collections, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	ci := indexCollection(collections, id)
	if ci < 0 {
		return nil, notFound("collection", id)
	}
	now := s.now().UTC()
	for i := range collections {
		c := &collections[i]
		if i == ci {
			if !c.Contains(productID) {
				c.ProductOrder = append(c.ProductOrder, productID)
				c.UpdatedAt = now
			}
			continue
		}
		if removeID(&c.ProductOrder, productID) {
			c.UpdatedAt = now
		}
	}
	if err := s.repo.SaveAll(ctx, collections); err != nil {
		return nil, err
	}

	if !sameRef(products[pi].CollectionID, &id) {
		products[pi].CollectionID = strPtr(id)
		products[pi].UpdatedAt = now
		if err := s.products.SaveAll(ctx, products); err != nil {
			return nil, err
		}
	}
	s.committed(ctx, "update", id, "add product "+productID)
	return s.present(ctx, collections[ci])
}

func (s *collectionService) RemoveProduct(ctx context.Context, id, productID string) (*dto.CollectionResponse, error) {
	c, err := s.mutate(ctx, id, func(c *model.Collection) error {
		if !removeID(&c.ProductOrder, productID) {
			return notFound("collection member", productID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	if pi := indexProduct(products, productID); pi >= 0 && sameRef(products[pi].CollectionID, &id) {
		products[pi].CollectionID = nil
		products[pi].UpdatedAt = s.now().UTC()
		if err := s.products.SaveAll(ctx, products); err != nil {
			return nil, err
		}
	}
	s.committed(ctx, "update", id, "remove product "+productID)
	return s.present(ctx, *c)
}

// Reorder replaces the display order. The new order must hold exactly the
// live members: nothing dropped, nothing added, no duplicates. Ids of deleted
// products are not expected from the caller and are dropped from the order.
func (s *collectionService) Reorder(ctx context.Context, id string, order []string) (*dto.CollectionResponse, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	exists := make(map[string]bool, len(products))
	for _, p := range products {
		exists[p.ID] = true
	}
	c, err := s.mutate(ctx, id, func(c *model.Collection) error {
		live := make([]string, 0, len(c.ProductOrder))
		for _, pid := range c.ProductOrder {
			if exists[pid] {
				live = append(live, pid)
			}
		}
		if err := checkPermutation(live, order); err != nil {
			return err
		}
		c.ProductOrder = append([]string{}, order...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, "reorder", id, c.Name)
	return s.present(ctx, *c)
}

// GenerateDescription drafts marketing copy for the collection. With apply
// set the text is stored as the collection description.
func (s *collectionService) GenerateDescription(ctx context.Context, id string, apply bool) (*dto.DescribeResponse, error) {
	view, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	in := assist.DescriptionInput{Name: view.Name, ProductNames: make([]string, 0, len(view.Products))}
	if view.Group != nil {
		in.Group = *view.Group
	}
	for _, p := range view.Products {
		in.ProductNames = append(in.ProductNames, p.Name)
	}

	res := s.chain.DescribeCollection(ctx, in)
	resp := &dto.DescribeResponse{
		Description: res.Value.Description,
		Source:      res.Source,
		Fallback:    res.FellBack(),
	}
	if !apply {
		return resp, nil
	}
	if _, err := s.mutate(ctx, id, func(c *model.Collection) error {
		c.Description = strPtr(res.Value.Description)
		return nil
	}); err != nil {
		return nil, err
	}
	s.committed(ctx, "update", id, "description from "+res.Source)
	resp.Applied = true
	return resp, nil
}

func (s *collectionService) mutate(ctx context.Context, id string, patch func(*model.Collection) error) (*model.Collection, error) {
	collections, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	i := indexCollection(collections, id)
	if i < 0 {
		return nil, notFound("collection", id)
	}
	c := collections[i]
	c.ProductOrder = append([]string{}, c.ProductOrder...)
	if err := patch(&c); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now().UTC()
	collections[i] = c
	if err := s.repo.SaveAll(ctx, collections); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *collectionService) present(ctx context.Context, c model.Collection) (*dto.CollectionResponse, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.catalog.load(ctx)
	if err != nil {
		return nil, err
	}
	resp := resolve(c, products, snap)
	return &resp, nil
}

func (s *collectionService) committed(ctx context.Context, action, id, details string) {
	s.audit.Record(ctx, action, "collection", id, details)
	s.notifier.Notify(eventType(action), "collection", id)
}

// resolve drops ids of deleted products and keeps the stored order.
func resolve(c model.Collection, products []model.Product, snap *snapshot) dto.CollectionResponse {
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	resp := dto.CollectionResponse{Collection: c, Products: make([]dto.ProductResponse, 0, len(c.ProductOrder))}
	for _, pid := range c.ProductOrder {
		if p, ok := byID[pid]; ok {
			resp.Products = append(resp.Products, snap.view(p))
		}
	}
	return resp
}

func checkPermutation(current, proposed []string) error {
	if len(current) != len(proposed) {
		return fmt.Errorf("%w: expected %d ids, got %d", ErrInvalidOrder, len(current), len(proposed))
	}
	want := make(map[string]bool, len(current))
	for _, id := range current {
		want[id] = true
	}
	seen := make(map[string]bool, len(proposed))
	unknown := make(map[string]bool)
	for _, id := range proposed {
		if seen[id] {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidOrder, id)
		}
		seen[id] = true
		if !want[id] {
			unknown[id] = true
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: unknown ids %s", ErrInvalidOrder, strings.Join(sortedKeys(unknown), ", "))
	}
	return nil
}

func indexCollection(all []model.Collection, id string) int {
	for i, c := range all {
		if c.ID == id {
			return i
		}
	}
	return -1
}
