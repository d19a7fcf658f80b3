package model

import "time"

// Collection is a curated, ordered grouping of products. ProductOrder is both
// the membership list and the display order; it may still hold ids of deleted
// products, which readers filter out.
type Collection struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Group        *string   `json:"group,omitempty"`
	IsArchived   bool      `json:"isArchived"`
	Pinned       bool      `json:"pinned"`
	ProductOrder []string  `json:"productOrder"`
	CoverURL     *string   `json:"coverUrl,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Contains reports whether productID is a member.
func (c *Collection) Contains(productID string) bool {
	for _, id := range c.ProductOrder {
		if id == productID {
			return true
		}
	}
	return false
}
