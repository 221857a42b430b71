package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/katwe/bakeledger/internal/domain/models"
)

// LoadCatalog reads the product reference file, falling back to the
// built-in product list when no path is configured. The catalog is
// immutable after load.
func LoadCatalog(path string) (*models.Catalog, error) {
	if path == "" {
		return defaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read products file %s: %w", path, err)
	}

	var catalog models.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse products file %s: %w", path, err)
	}
	if len(catalog.Products) == 0 {
		return nil, fmt.Errorf("products file %s defines no products", path)
	}
	return &catalog, nil
}

func defaultCatalog() *models.Catalog {
	return &models.Catalog{
		Products: []models.Product{
			{ID: "bread", Name: "Bread", RevenuePerKgFlour: 9300, CostPerKgFlour: 5200, DefaultPrice: 4500},
			{ID: "buns", Name: "Buns", RevenuePerKgFlour: 8000, CostPerKgFlour: 4600, DefaultPrice: 500},
			{ID: "half_cakes", Name: "Half Cakes", RevenuePerKgFlour: 10500, CostPerKgFlour: 5800, DefaultPrice: 300},
			{ID: "cakes", Name: "Cakes", RevenuePerKgFlour: 14000, CostPerKgFlour: 7500, DefaultPrice: 2000},
		},
	}
}
