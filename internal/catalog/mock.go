package catalog

import "github.com/fjod/go_cart/storefront/internal/domain"

// MockProducts is served when the remote catalog is empty.
func MockProducts() []domain.Product {
	return []domain.Product{
		{
			ID:                 "1",
			Name:               "RTX 4090 Gaming X Trio",
			Description:        "NVIDIA GeForce RTX 4090 dengan 24GB GDDR6X",
			Price:              25_999_000,
			Category:           "GPU",
			Stock:              12,
			Rating:             4.8,
			DiscountPercentage: 15,
			Image:              "https://images.unsplash.com/photo-1593640408182-31c70c8268f5",
		},
		{
			ID:                 "2",
			Name:               "Ryzen 9 7950X",
			Description:        "AMD Ryzen 9 7950X 16-Core 32-Thread Processor",
			Price:              12_499_000,
			Category:           "CPU",
			Stock:              25,
			Rating:             4.9,
			DiscountPercentage: 10,
			Image:              "https://images.unsplash.com/photo-1587202372634-32705e3bf49c",
		},
	}
}
