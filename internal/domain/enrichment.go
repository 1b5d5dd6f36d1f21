package domain

// EnrichmentRequest is the input handed to the AI enrichment service for one
// product.
type EnrichmentRequest struct {
	ProductName    string  `json:"product_name"`
	Category       string  `json:"category"`
	BasePrice      float64 `json:"base_price"`
	GenerateImages bool    `json:"generate_images"`
}

// EnrichmentResult is what the enrichment service produced for one product.
// Every field is optional — the service may return any subset, and absence
// means "not provided", never an error.
type EnrichmentResult struct {
	Description     *string
	MetaDescription *string
	OptimalPrice    *float64
	ImageURLs       []string
}

// HasTextOrPrice reports whether the result carries anything worth writing
// back to the catalog entry itself.
func (r *EnrichmentResult) HasTextOrPrice() bool {
	return r.Description != nil || r.MetaDescription != nil || r.OptimalPrice != nil
}
