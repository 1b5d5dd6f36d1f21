package domain

// Product is a transient snapshot of a catalog item owned by the commerce
// backend. It is fetched at the start of a pipeline run and discarded when
// the run ends — nothing here is persisted locally.
type Product struct {
	ID               int            `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	ShortDescription string         `json:"short_description"`
	RegularPrice     float64        `json:"regular_price"`
	Category         string         `json:"category"`
	Images           []ProductImage `json:"images"`
}

// ProductImage is one entry of a product's ordered image list.
type ProductImage struct {
	ID  int    `json:"id"`
	URL string `json:"src"`
}

// ProductUpdate carries a partial update for a product. Nil fields are not
// sent to the backend at all, so the remote value stays untouched.
type ProductUpdate struct {
	Description      *string
	ShortDescription *string
	RegularPrice     *float64
}

// IsEmpty reports whether the update would send nothing.
func (u ProductUpdate) IsEmpty() bool {
	return u.Description == nil && u.ShortDescription == nil && u.RegularPrice == nil
}
