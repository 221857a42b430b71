package models

// Product is immutable reference data describing one bakery product line.
// Per-kg margin is RevenuePerKgFlour minus CostPerKgFlour.
type Product struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	RevenuePerKgFlour float64 `json:"revenuePerKgFlour"`
	CostPerKgFlour    float64 `json:"costPerKgFlour"`
	DefaultPrice      float64 `json:"defaultPrice"`
}

// Catalog is the externally supplied reference data: the ordered product
// list plus optional per-site price overrides. It is read-only after load.
type Catalog struct {
	Products      []Product                     `json:"products"`
	SiteOverrides map[string]map[string]float64 `json:"siteOverrides,omitempty"`
}

// ForSite returns the site's effective price list.
func (c *Catalog) ForSite(siteID string) *PriceList {
	if c == nil {
		return &PriceList{}
	}
	return &PriceList{Products: c.Products, Overrides: c.SiteOverrides[siteID]}
}

// PriceList resolves unit prices for legacy quantity-only records: the
// per-site override wins, then the product's default price, then zero.
type PriceList struct {
	Products  []Product
	Overrides map[string]float64
}

// UnitPrice returns the selling price for one unit of the given product.
func (p *PriceList) UnitPrice(productID string) float64 {
	if p == nil {
		return 0
	}
	if price, ok := p.Overrides[productID]; ok {
		return price
	}
	for _, product := range p.Products {
		if product.ID == productID {
			return product.DefaultPrice
		}
	}
	return 0
}

// ProductName returns the display name for a product, falling back to the
// raw id when the product is unknown to the reference list.
func (p *PriceList) ProductName(productID string) string {
	if p != nil {
		for _, product := range p.Products {
			if product.ID == productID {
				return product.Name
			}
		}
	}
	return productID
}
