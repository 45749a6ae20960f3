package mockapi

import (
	"time"

	"github.com/five82/netmoya/internal/api"
	"github.com/five82/netmoya/internal/catalog"
)

func strPtr(s string) *string { return &s }

// SampleProducts is the seed catalogue.
func SampleProducts() []catalog.Product {
	created := api.Time{Time: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	return []catalog.Product{
		{
			ID:            "1",
			Name:          "iPhone 15 Pro",
			Description:   strPtr("Latest iPhone with A17 Pro chip"),
			Price:         999.99,
			Currency:      "USD",
			ImageURL:      strPtr("https://example.com/iphone15.jpg"),
			Category:      "Electronics",
			StockQuantity: 50,
			SKU:           strPtr("IP15P-128"),
			CreatedAt:     &created,
			UpdatedAt:     &created,
		},
		{
			ID:            "2",
			Name:          "MacBook Pro 16\"",
			Description:   strPtr("M3 Max chip, 32GB RAM, 1TB SSD"),
			Price:         3499.99,
			Currency:      "USD",
			ImageURL:      strPtr("https://example.com/macbook.jpg"),
			Category:      "Electronics",
			StockQuantity: 25,
			SKU:           strPtr("MBP16-M3"),
			CreatedAt:     &created,
			UpdatedAt:     &created,
		},
		{
			ID:            "3",
			Name:          "AirPods Pro",
			Description:   strPtr("Active noise cancellation"),
			Price:         249.99,
			Currency:      "USD",
			Category:      "Audio",
			StockQuantity: 100,
			SKU:           strPtr("APP-2"),
			CreatedAt:     &created,
			UpdatedAt:     &created,
		},
		{
			ID:            "4",
			Name:          "Desk Lamp",
			Price:         39.5,
			Currency:      "EUR",
			Category:      "Home",
			StockQuantity: 12,
		},
	}
}

// SampleTodos is the seed todo list.
func SampleTodos() []catalog.Todo {
	return []catalog.Todo{
		{UserID: 1, ID: 1, Title: "delectus aut autem", Completed: false},
		{UserID: 1, ID: 2, Title: "quis ut nam facilis et officia qui", Completed: false},
		{UserID: 1, ID: 3, Title: "fugiat veniam minus", Completed: false},
		{UserID: 1, ID: 4, Title: "et porro tempora", Completed: true},
	}
}
