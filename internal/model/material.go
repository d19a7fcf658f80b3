package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Material is a priced raw input (board, edge band, fitting...) referenced by
// product tech cards. Article is unique within the catalog, case-insensitively.
type Material struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Article   string          `json:"article"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ArticleKey is the normalized form used for uniqueness checks and CSV merges.
func ArticleKey(article string) string {
	return strings.ToLower(strings.TrimSpace(article))
}
