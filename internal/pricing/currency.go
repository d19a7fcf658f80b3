package pricing

import (
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"

	"github.com/shopspring/decimal"
)

// Convert expresses amount (in cfg.Base) in code. When no usable rate is
// stored the amount is returned unchanged with ok=false.
func Convert(amount decimal.Decimal, cfg model.CurrencyConfig, code string) (decimal.Decimal, bool) {
	rate, ok := cfg.Rate(code)
	if !ok {
		return amount, false
	}
	return amount.Mul(rate), true
}
