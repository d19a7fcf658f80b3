package pricelist

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Build groups rows, normalizes the column selection and computes totals.
func Build(rows []PricedRow, opts Options) Document {
	theme := opts.Theme
	if theme.Name == "" {
		theme = DefaultTheme()
	}
	title := opts.Title
	if title == "" {
		title = "Price list"
	}
	brand := opts.Company.Brand
	if brand == "" {
		brand = opts.Company.Name
	}

	doc := Document{
		Title:          title,
		Brand:          brand,
		Date:           opts.Date,
		Theme:          theme,
		Columns:        NormalizeColumns(opts.Columns),
		Groups:         groupRows(rows, opts.GroupBy),
		ShowSubtotals:  opts.Subtotals,
		ShowGrandTotal: opts.GrandTotal,
		PageBreaks:     opts.PageBreaks,
		Cover:          opts.Cover,
		Company:        opts.Company,
		Locale:         opts.Locale,
		Currency:       strings.ToUpper(opts.Currency),
	}

	doc.Total = decimal.Zero
	for i := range doc.Groups {
		sub := decimal.Zero
		for _, r := range doc.Groups[i].Rows {
			sub = sub.Add(r.Price.FinalPrice)
		}
		doc.Groups[i].Subtotal = sub
		doc.Total = doc.Total.Add(sub)
	}
	return doc
}

// NormalizeColumns drops unknown and repeated columns and returns the rest in
// canonical order. An empty selection means every column.
func NormalizeColumns(selected []Column) []Column {
	if len(selected) == 0 {
		return append([]Column(nil), CanonicalColumns...)
	}
	want := make(map[Column]bool, len(selected))
	for _, c := range selected {
		want[c] = true
	}
	out := make([]Column, 0, len(want))
	for _, c := range CanonicalColumns {
		if want[c] {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return append([]Column(nil), CanonicalColumns...)
	}
	return out
}

// groupRows buckets rows keeping the order in which each bucket is first seen.
func groupRows(rows []PricedRow, by GroupBy) []Group {
	if by != GroupType && by != GroupCollection {
		return []Group{{Name: "", Rows: append([]PricedRow(nil), rows...)}}
	}

	index := map[string]int{}
	var groups []Group
	for _, r := range rows {
		key := r.TypeName
		if by == GroupCollection {
			key = r.CollectionName
		}
		key = strings.TrimSpace(key)
		if key == "" {
			key = Uncategorized
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Name: key})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}
