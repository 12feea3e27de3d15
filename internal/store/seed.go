package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// SeedCategory is a category of the demo catalog together with its products.
type SeedCategory struct {
	Category CategoryInput
	Products []ProductInput
}

// SeedIfEmpty loads the given catalog when the store holds no products.
// Categories are created first; each product is bound to the id its category received.
// Returns the number of products created.
func SeedIfEmpty(ctx context.Context, s Store, seed []SeedCategory) (int, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for _, sc := range seed {
		c, err := s.CreateCategory(ctx, sc.Category)
		if err != nil {
			return created, fmt.Errorf("seed category %q: %w", sc.Category.Name, err)
		}
		for _, in := range sc.Products {
			id := c.ID
			in.CategoryID = &id
			if _, err := s.Create(ctx, in); err != nil {
				return created, fmt.Errorf("seed product %q: %w", in.Name, err)
			}
			created++
		}
	}
	return created, nil
}

var clothingSizes = []string{"S", "M", "L", "XL"}

func seedProduct(name, ref, price string, stock int, clothing bool, description, image string) ProductInput {
	in := ProductInput{
		Name:        name,
		Description: description,
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		IsClothing:  clothing,
		ImageURL:    "/assets/images/" + image,
		Reference:   ref,
		Images:      []string{"/assets/images/" + image},
	}
	if clothing {
		in.Material = "Cotton"
		in.Printings = "StudyZone logo"
		in.AvailableSizes = clothingSizes
	}
	return in
}

// SeedCatalog returns the demo StudyZone catalog.
func SeedCatalog() []SeedCategory {
	return []SeedCategory{
		{
			Category: CategoryInput{Name: "T-Shirts", Description: "Casual t-shirts"},
			Products: []ProductInput{
				seedProduct("StudyZone Classic Black T-Shirt", "TSHIRT-001", "29.99", 100, true, "Premium quality StudyZone black t-shirt", "product-1.jpg"),
				seedProduct("StudyZone White T-Shirt", "TSHIRT-002", "24.99", 150, true, "Clean StudyZone white t-shirt", "product-2.jpg"),
				seedProduct("Red Dress", "DRESS-001", "89.99", 50, true, "Elegant red dress", "product-10.jpg"),
				seedProduct("StudyZone Polo Shirt", "POLO-001", "35.99", 18, true, "Classic polo shirt with StudyZone emblem", "polo-shirt.jpg"),
			},
		},
		{
			Category: CategoryInput{Name: "Hoodies", Description: "Comfortable hoodies"},
			Products: []ProductInput{
				seedProduct("StudyZone Navy Hoodie", "HOODIE-001", "59.99", 80, true, "Cozy navy hoodie", "product-3.jpg"),
				seedProduct("Black Hoodie", "HOODIE-002", "59.99", 90, true, "Classic black hoodie", "product-4.jpg"),
				seedProduct("StudyZone Sweatshirt", "SWEAT-001", "45.00", 65, true, "Comfortable sweatshirt for cold days", "sweatshirt.jpg"),
			},
		},
		{
			Category: CategoryInput{Name: "Pants", Description: "Quality pants"},
			Products: []ProductInput{
				seedProduct("Blue Jeans", "JEANS-001", "79.99", 60, true, "Classic blue denim jeans", "product-5.jpg"),
				seedProduct("Black Jeans", "JEANS-002", "79.99", 70, true, "Slim fit black jeans", "product-6.jpg"),
			},
		},
		{
			Category: CategoryInput{Name: "Jackets", Description: "Stylish jackets"},
			Products: []ProductInput{
				seedProduct("Leather Jacket", "JACKET-001", "199.99", 30, true, "Premium leather jacket", "product-7.jpg"),
				seedProduct("Denim Jacket", "JACKET-002", "89.99", 45, true, "Classic denim jacket", "product-8.jpg"),
			},
		},
		{
			Category: CategoryInput{Name: "Hats", Description: "Hats and caps"},
			Products: []ProductInput{
				seedProduct("Baseball Cap", "CAP-001", "19.99", 200, true, "Adjustable baseball cap", "product-9.jpg"),
				seedProduct("StudyZone Cap", "HAT-001", "19.99", 15, true, "Stylish cap with StudyZone logo", "cap.jpg"),
			},
		},
		{
			Category: CategoryInput{Name: "Accessories", Description: "Everyday accessories"},
			Products: []ProductInput{
				seedProduct("StudyZone Laptop Bag", "BAG-001", "125.00", 45, false, "Professional laptop bag for students", "laptop-bag.jpg"),
				seedProduct("StudyZone Desk Organizer", "DESK-001", "45.99", 30, false, "Keep your desk organized with style", "desk-organizer.jpg"),
				seedProduct("StudyZone Water Bottle", "BOTTLE-001", "19.99", 120, false, "Stay hydrated with StudyZone bottle", "water-bottle.jpg"),
				seedProduct("StudyZone Backpack", "BAG-002", "75.00", 55, false, "Durable backpack for daily use", "backpack.jpg"),
				seedProduct("StudyZone Mug", "MUG-001", "12.99", 90, false, "Coffee mug for study sessions", "mug.jpg"),
				seedProduct("StudyZone Stickers Pack", "STICK-001", "9.99", 300, false, "Cool stickers for laptops and notebooks", "stickers.jpg"),
				seedProduct("StudyZone Phone Case", "PHONE-001", "24.99", 85, false, "Protect your phone with style", "phone-case.jpg"),
				seedProduct("StudyZone Keychain", "KEY-001", "8.99", 150, false, "StudyZone branded keychain", "keychain.jpg"),
				seedProduct("StudyZone Mouse Pad", "MOUSE-001", "14.99", 110, false, "High-quality mouse pad for gaming and work", "mouse-pad.jpg"),
				seedProduct("StudyZone Lanyard", "LAND-001", "6.99", 8, false, "StudyZone lanyard for ID cards", "lanyard.jpg"),
			},
		},
		{
			Category: CategoryInput{Name: "Stationery", Description: "Notebooks and pens"},
			Products: []ProductInput{
				seedProduct("StudyZone Notebook", "NOTE-001", "15.50", 200, false, "High-quality notebook for studies", "notebook.jpg"),
				seedProduct("StudyZone Pen Set", "PEN-001", "25.00", 75, false, "Premium pen set with StudyZone logo", "pen-set.jpg"),
			},
		},
		{
			Category: CategoryInput{Name: "Tech", Description: "Tech gadgets"},
			Products: []ProductInput{
				seedProduct("StudyZone USB Drive", "USB-001", "29.99", 0, false, "32GB USB drive with StudyZone design", "usb-drive.jpg"),
			},
		},
	}
}
