package dto

// PriceListRequest selects what goes into a price list and how it looks.
// Columns is a comma-separated list in query strings.
type PriceListRequest struct {
	Format       string   `form:"format"       json:"format"     validate:"omitempty,oneof=pdf html xlsx"`
	GroupBy      string   `form:"groupBy"      json:"groupBy"    validate:"omitempty,oneof=none type collection"`
	Theme        string   `form:"theme"        json:"theme"      validate:"omitempty,oneof=modern minimal grid"`
	Accent       string   `form:"accent"       json:"accent"     validate:"omitempty,max=7"`
	Columns      []string `form:"columns"      json:"columns"`
	Cover        bool     `form:"cover"        json:"cover"`
	Subtotals    bool     `form:"subtotals"    json:"subtotals"`
	PageBreaks   bool     `form:"pageBreaks"   json:"pageBreaks"`
	GrandTotal   bool     `form:"grandTotal"   json:"grandTotal"`
	Locale       string   `form:"locale"       json:"locale"     validate:"omitempty,max=16"`
	Currency     string   `form:"currency"     json:"currency"   validate:"omitempty,len=3"`
	CollectionID string   `form:"collectionId" json:"collectionId"`
	Title        string   `form:"title"        json:"title"      validate:"omitempty,max=200"`
}

type PriceListEmailRequest struct {
	PriceListRequest
	To      string `json:"to"      validate:"required,email"`
	Subject string `json:"subject" validate:"omitempty,max=200"`
}

type EnqueueResponse struct {
	Queued   bool   `json:"queued"`
	Filename string `json:"filename"`
}

// PriceListOptionsResponse lists the accepted values for the render request.
type PriceListOptionsResponse struct {
	Formats []string `json:"formats"`
	GroupBy []string `json:"groupBy"`
	Themes  []string `json:"themes"`
	Columns []string `json:"columns"`
}
