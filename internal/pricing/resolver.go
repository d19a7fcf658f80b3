package pricing

import "github.com/33hpS/PRISE-WAS-PRO2/internal/model"

// NoneLabel is shown wherever a weak reference does not resolve.
const NoneLabel = "—"

// Resolver indexes the catalog for optional-reference lookups. A lookup miss
// is reported through the boolean, never as an error.
type Resolver struct {
	materials    map[string]model.Material
	productTypes map[string]model.ProductTypeRule
	finishTypes  map[string]model.FinishTypeRule
}

func NewResolver(materials []model.Material, rules Rules) *Resolver {
	r := &Resolver{
		materials:    make(map[string]model.Material, len(materials)),
		productTypes: make(map[string]model.ProductTypeRule, len(rules.ProductTypes)),
		finishTypes:  make(map[string]model.FinishTypeRule, len(rules.FinishTypes)),
	}
	for _, m := range materials {
		r.materials[m.ID] = m
	}
	for _, t := range rules.ProductTypes {
		r.productTypes[t.ID] = t
	}
	for _, f := range rules.FinishTypes {
		r.finishTypes[f.ID] = f
	}
	return r
}

func (r *Resolver) Material(id string) (model.Material, bool) {
	m, ok := r.materials[id]
	return m, ok
}

func (r *Resolver) ProductType(id *string) (model.ProductTypeRule, bool) {
	if id == nil {
		return model.ProductTypeRule{}, false
	}
	t, ok := r.productTypes[*id]
	return t, ok
}

func (r *Resolver) FinishType(id *string) (model.FinishTypeRule, bool) {
	if id == nil {
		return model.FinishTypeRule{}, false
	}
	f, ok := r.finishTypes[*id]
	return f, ok
}

// ProductTypeName resolves a weak reference to a display label.
func (r *Resolver) ProductTypeName(id *string) string {
	if t, ok := r.ProductType(id); ok {
		return t.Name
	}
	return NoneLabel
}

func (r *Resolver) FinishTypeName(id *string) string {
	if f, ok := r.FinishType(id); ok {
		return f.Name
	}
	return NoneLabel
}
