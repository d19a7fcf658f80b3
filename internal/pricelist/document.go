// Package pricelist lays out priced catalog rows as a price-list document and
// renders it to PDF, an HTML print view or an XLSX workbook.
//
// Build is pure and produces a Document that fixes grouping, column set and
// totals. Every renderer consumes the same Document, so the outputs agree on
// structure for the same input.
package pricelist

import (
	"fmt"
	"strings"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/pricing"

	"github.com/shopspring/decimal"
)

// GroupBy selects the grouping dimension.
type GroupBy string

const (
	GroupNone       GroupBy = "none"
	GroupType       GroupBy = "type"
	GroupCollection GroupBy = "collection"
)

// ParseGroupBy accepts none, type or collection. Empty means none.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(s))); g {
	case GroupNone, GroupType, GroupCollection:
		return g, nil
	case "":
		return GroupNone, nil
	}
	return "", fmt.Errorf("pricelist: unknown grouping %q", s)
}

// Uncategorized labels rows whose grouping dimension is unset.
const Uncategorized = "Uncategorized"

// Column is one of the selectable table columns.
type Column string

const (
	ColImage        Column = "image"
	ColArticle      Column = "article"
	ColName         Column = "name"
	ColType         Column = "type"
	ColFinish       Column = "finish"
	ColMaterialCost Column = "material_cost"
	ColLaborCost    Column = "labor_cost"
	ColFinalPrice   Column = "final_price"
	ColMarkup       Column = "markup"
)

// CanonicalColumns is the fixed column order. Selections are re-sorted into it.
var CanonicalColumns = []Column{
	ColImage, ColArticle, ColName, ColType, ColFinish,
	ColMaterialCost, ColLaborCost, ColFinalPrice, ColMarkup,
}

var columnTitles = map[Column]string{
	ColImage:        "Image",
	ColArticle:      "Article",
	ColName:         "Name",
	ColType:         "Type",
	ColFinish:       "Finish",
	ColMaterialCost: "Materials",
	ColLaborCost:    "Labor",
	ColFinalPrice:   "Price",
	ColMarkup:       "Markup",
}

// Title is the header label for c.
func (c Column) Title() string { return columnTitles[c] }

// Numeric reports whether the column holds an amount (right-aligned, summable).
func (c Column) Numeric() bool {
	switch c {
	case ColMaterialCost, ColLaborCost, ColFinalPrice, ColMarkup:
		return true
	}
	return false
}

// PricedRow is one product after pricing and reference resolution. Empty
// TypeName / FinishName / CollectionName mean the reference did not resolve.
type PricedRow struct {
	ProductID      string
	Article        string
	Name           string
	TypeName       string
	FinishName     string
	CollectionName string
	ImageURL       string
	Price          pricing.Breakdown
}

// Options control one build. Theme, locale and currency are explicit here and
// nothing is read from global state.
type Options struct {
	GroupBy    GroupBy
	Theme      Theme
	Columns    []Column
	Cover      bool
	Subtotals  bool
	PageBreaks bool
	GrandTotal bool
	Locale     string
	Currency   string
	Company    model.CompanyProfile
	Title      string
	Date       time.Time
}

// Group is one heading plus its rows.
type Group struct {
	Name     string
	Rows     []PricedRow
	Subtotal decimal.Decimal
}

// Document is the layout-neutral result of Build.
type Document struct {
	Title   string
	Brand   string
	Date    time.Time
	Theme   Theme
	Columns []Column
	Groups  []Group
	// Total is always computed; ShowGrandTotal decides whether it is printed.
	Total          decimal.Decimal
	ShowSubtotals  bool
	ShowGrandTotal bool
	PageBreaks     bool
	Cover          bool
	Company        model.CompanyProfile
	Locale         string
	Currency       string
}

// HasColumn reports whether c is part of the selected column set.
func (d *Document) HasColumn(c Column) bool {
	for _, col := range d.Columns {
		if col == c {
			return true
		}
	}
	return false
}

// RowCount is the number of product rows across all groups.
func (d *Document) RowCount() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Rows)
	}
	return n
}
