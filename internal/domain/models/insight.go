package models

// Insight is one generated observation about recent sales history.
type Insight struct {
	Title   string `json:"title"`
	Insight string `json:"insight"`
	Emoji   string `json:"emoji"`
}

// WeeklySales is the serialized shape handed to the insight generator:
// one entry per week with product-name keyed quantities or amounts.
type WeeklySales struct {
	Week  string             `json:"week"`
	Sales map[string]float64 `json:"sales"`
}
