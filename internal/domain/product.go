package domain

import (
	"fmt"
	"strings"
)

// Category is the closed set of product categories the store sells.
type Category string

const (
	CategoryComputers   Category = "Computers and Laptops"
	CategorySmartphones Category = "Smartphones and Accessories"
	CategoryTelevisions Category = "Televisions and Home Theater Systems"
	CategoryGaming      Category = "Gaming Consoles and Accessories"
	CategoryAudio       Category = "Audio Equipment"
	CategoryCameras     Category = "Cameras and Camcorders"
)

// Categories lists every valid category in a fixed order.
func Categories() []Category {
	return []Category{
		CategoryComputers,
		CategorySmartphones,
		CategoryTelevisions,
		CategoryGaming,
		CategoryAudio,
		CategoryCameras,
	}
}

// ValidCategory reports whether cat is one of the known categories.
func ValidCategory(cat Category) bool {
	for _, c := range Categories() {
		if c == cat {
			return true
		}
	}
	return false
}

// Product is a single catalog record. Identity is the unique Name.
// Products are immutable once loaded.
type Product struct {
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Brand       string   `json:"brand"`
	ModelNumber string   `json:"model_number"`
	Warranty    string   `json:"warranty"`
	Rating      float64  `json:"rating"`
	Features    []string `json:"features"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
}

// PromptText renders the product in the fixed attribute-per-line format
// used inside backend prompts.
func (p Product) PromptText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\n", p.Name)
	fmt.Fprintf(&b, "Category: %s\n", p.Category)
	fmt.Fprintf(&b, "Brand: %s\n", p.Brand)
	fmt.Fprintf(&b, "Model Number: %s\n", p.ModelNumber)
	fmt.Fprintf(&b, "Warranty: %s\n", p.Warranty)
	fmt.Fprintf(&b, "Rating: %.1f\n", p.Rating)
	fmt.Fprintf(&b, "Features: %s\n", strings.Join(p.Features, ", "))
	fmt.Fprintf(&b, "Description: %s\n", p.Description)
	fmt.Fprintf(&b, "Price: $%.2f", p.Price)
	return b.String()
}
