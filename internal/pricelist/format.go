package pricelist

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var dateLayouts = map[string]string{
	"ru": "02.01.2006",
	"de": "02.01.2006",
	"kk": "02.01.2006",
	"be": "02.01.2006",
	"en": "January 2, 2006",
	"fr": "02/01/2006",
	"zh": "2006-01-02",
}

// Formatter renders amounts and dates for one locale and currency. Each build
// gets its own Formatter.
type Formatter struct {
	tag        language.Tag
	printer    *message.Printer
	unit       currency.Unit
	dateLayout string
}

// NewFormatter resolves locale and currency code. Unknown locales fall back to
// English, unknown currency codes to the unit-less XXX code.
func NewFormatter(locale, code string) *Formatter {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || locale == "" {
		tag = language.English
	}
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		unit = currency.XXX
	}
	base, _ := tag.Base()
	layout, ok := dateLayouts[base.String()]
	if !ok {
		layout = "2006-01-02"
	}
	return &Formatter{
		tag:        tag,
		printer:    message.NewPrinter(tag),
		unit:       unit,
		dateLayout: layout,
	}
}

// Money formats d with two decimals, locale grouping and the ISO code.
func (f *Formatter) Money(d decimal.Decimal) string {
	v, _ := d.Round(2).Float64()
	return f.printer.Sprintf("%.2f", v) + " " + f.unit.String()
}

// Percent formats a markup percentage.
func (f *Formatter) Percent(d decimal.Decimal) string {
	v, _ := d.Round(1).Float64()
	return f.printer.Sprintf("%.1f", v) + "%"
}

func (f *Formatter) Date(t time.Time) string {
	return t.Format(f.dateLayout)
}

// CurrencyCode is the resolved ISO code.
func (f *Formatter) CurrencyCode() string { return f.unit.String() }
