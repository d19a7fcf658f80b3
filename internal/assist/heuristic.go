package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// component is a generic part of a cabinet-type product, matched against the
// material catalog by keyword.
type component struct {
	label    string
	unit     string
	keywords []string
}

var (
	compBoard   = component{"Chipboard panel", "m2", []string{"лдсп", "дсп", "мдф", "плита", "board", "panel", "chipboard", "mdf"}}
	compEdge    = component{"Edge banding", "m", []string{"кромк", "edge"}}
	compScrew   = component{"Fasteners", "pcs", []string{"конфирмат", "саморез", "шуруп", "screw", "fastener"}}
	compHinge   = component{"Hinge", "pcs", []string{"петл", "hinge"}}
	compHandle  = component{"Handle", "pcs", []string{"ручк", "handle"}}
	compSlide   = component{"Drawer slides", "set", []string{"направляющ", "slide", "runner"}}
	compLeg     = component{"Leg", "pcs", []string{"ножк", "опор", "leg"}}
	compBack    = component{"Back panel (HDF)", "m2", []string{"хдф", "двп", "hdf", "back"}}
	compRail    = component{"Hanging rail", "pcs", []string{"штанг", "rail"}}
	compBracket = component{"Shelf bracket", "pcs", []string{"полкодерж", "кронштейн", "bracket", "support"}}
	compMirror  = component{"Mirror", "m2", []string{"зеркал", "mirror"}}
	compPaint   = component{"Enamel paint", "kg", []string{"эмал", "краск", "paint", "enamel", "lacquer", "лак"}}
	compVeneer  = component{"Veneer", "m2", []string{"шпон", "veneer"}}
)

type part struct {
	c   component
	qty string
}

type recipe struct {
	keywords []string
	parts    []part
}

// recipes are tried in order; the first keyword hit wins.
var recipes = []recipe{
	{[]string{"шкаф", "wardrobe", "closet", "cabinet"}, []part{
		{compBoard, "5.2"}, {compBack, "1.8"}, {compEdge, "22"}, {compHinge, "4"},
		{compHandle, "2"}, {compRail, "1"}, {compScrew, "40"},
	}},
	{[]string{"комод", "тумб", "dresser", "chest", "nightstand", "drawer"}, []part{
		{compBoard, "2.6"}, {compBack, "0.6"}, {compEdge, "12"}, {compSlide, "3"},
		{compHandle, "3"}, {compScrew, "28"},
	}},
	{[]string{"стол", "table", "desk"}, []part{
		{compBoard, "1.9"}, {compEdge, "8"}, {compLeg, "4"}, {compScrew, "16"},
	}},
	{[]string{"полк", "стеллаж", "shelf", "rack", "bookcase"}, []part{
		{compBoard, "1.4"}, {compEdge, "7"}, {compBracket, "4"}, {compScrew, "12"},
	}},
	{[]string{"зеркал", "mirror"}, []part{
		{compMirror, "0.6"}, {compBoard, "0.3"}, {compScrew, "6"},
	}},
}

var defaultParts = []part{{compBoard, "2"}, {compEdge, "8"}, {compScrew, "20"}}

// Heuristic is the deterministic local generator. It never fails.
type Heuristic struct{}

func NewHeuristic() *Heuristic { return &Heuristic{} }

func (h *Heuristic) Name() string { return "local" }

// Generate lets the heuristic stand in any strategy slot.
func (h *Heuristic) Generate(_ context.Context, task Task, payload any) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("assist: encode payload: %w", err)
	}
	switch task {
	case TaskCollectionDescription:
		var in DescriptionInput
		_ = json.Unmarshal(raw, &in)
		return json.Marshal(h.Describe(in))
	case TaskTechcardSuggest:
		var in TechcardInput
		_ = json.Unmarshal(raw, &in)
		return json.Marshal(h.Suggest(in))
	}
	return nil, fmt.Errorf("assist: unknown task %q", task)
}

// Describe writes two or three sentences from the name, group and products.
func (h *Heuristic) Describe(in DescriptionInput) Description {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "This collection"
	} else {
		name = "«" + name + "»"
	}

	var names []string
	for _, n := range in.ProductNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}

	var b strings.Builder
	switch {
	case in.Group != "" && len(names) > 0:
		fmt.Fprintf(&b, "%s is a %s line of %d %s.", name, strings.TrimSpace(in.Group), len(names), plural(len(names), "piece", "pieces"))
	case len(names) > 0:
		fmt.Fprintf(&b, "%s brings together %d %s in a single consistent style.", name, len(names), plural(len(names), "piece", "pieces"))
	default:
		fmt.Fprintf(&b, "%s is a furniture line designed around a single consistent style.", name)
	}
	if len(names) > 0 {
		shown := names
		if len(shown) > 3 {
			shown = shown[:3]
		}
		fmt.Fprintf(&b, " It includes %s", strings.Join(shown, ", "))
		if rest := len(names) - len(shown); rest > 0 {
			fmt.Fprintf(&b, " and %d more", rest)
		}
		b.WriteString(".")
	}
	b.WriteString(" Matching materials and finishes make it easy to furnish a whole room from one line.")
	return Description{Description: b.String()}
}

// Suggest picks a recipe by keyword and maps each part onto the catalog.
func (h *Heuristic) Suggest(in TechcardInput) Suggestion {
	text := strings.ToLower(strings.Join([]string{in.ProductName, in.Brief, in.TypeName}, " "))
	parts := defaultParts
	for _, r := range recipes {
		if containsAny(text, r.keywords) {
			parts = r.parts
			break
		}
	}

	finish := strings.ToLower(in.FinishName + " " + in.Brief)
	if containsAny(finish, compPaint.keywords) {
		parts = append(append([]part(nil), parts...), part{compPaint, "0.4"})
	} else if containsAny(finish, compVeneer.keywords) {
		parts = append(append([]part(nil), parts...), part{compVeneer, "2"})
	}

	items := make([]SuggestedItem, 0, len(parts))
	for _, p := range parts {
		item := SuggestedItem{Name: p.c.label, Unit: p.c.unit, Quantity: decimal.RequireFromString(p.qty)}
		if m, ok := matchCatalog(in.MaterialsCatalog, p.c.keywords); ok {
			item.Name, item.Article = m.Name, m.Article
			if m.Unit != "" {
				item.Unit = m.Unit
			}
		}
		items = append(items, item)
	}
	return Suggestion{Items: items}
}

func matchCatalog(catalog []CatalogMaterial, keywords []string) (CatalogMaterial, bool) {
	for _, m := range catalog {
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		if containsAny(strings.ToLower(m.Name+" "+m.Article), keywords) {
			return m, true
		}
	}
	return CatalogMaterial{}, false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
