package memory

import "github.com/utafrali/storefront-browse/internal/domain"

// NewDemo returns a catalog stocked with a small assortment so the service
// and browsectl can run without a catalog service.
func NewDemo() *Catalog {
	c := New()
	c.SetCategories([]Category{
		{Slug: "electronics", Name: "Electronics", Children: []Category{
			{Slug: "laptops", Name: "Laptops", Children: []Category{}},
			{Slug: "smartphones", Name: "Smartphones", Children: []Category{}},
			{Slug: "tv", Name: "TV", Children: []Category{}},
		}},
	})

	add := func(id, name, brand, category string, price, rating float64, inStock bool, popularity int) {
		c.Index(Entry{
			Product: domain.Product{
				ID:      id,
				Name:    name,
				Slug:    id,
				Brand:   brand,
				Price:   price,
				Images:  []string{"/img/" + id + ".jpg"},
				InStock: inStock,
				Rating:  rating,
			},
			Category:   category,
			Popularity: popularity,
		})
	}

	add("thinkpad-x1", "Lenovo ThinkPad X1 Carbon", "Lenovo", "laptops", 72999, 4.8, true, 90)
	add("ideapad-5", "Lenovo IdeaPad 5", "Lenovo", "laptops", 28999, 4.4, true, 70)
	add("macbook-air-13", "Apple MacBook Air 13", "Apple", "laptops", 47999, 4.9, true, 95)
	add("zenbook-14", "Asus Zenbook 14 OLED", "Asus", "laptops", 39999, 4.6, false, 60)
	add("vivobook-15", "Asus VivoBook 15", "Asus", "laptops", 21999, 4.1, true, 40)
	add("iphone-15", "Apple iPhone 15", "Apple", "smartphones", 39999, 4.8, true, 100)
	add("iphone-15-pro", "Apple iPhone 15 Pro", "Apple", "smartphones", 52999, 4.9, true, 98)
	add("galaxy-s24", "Samsung Galaxy S24", "Samsung", "smartphones", 33999, 4.7, true, 85)
	add("pixel-8", "Google Pixel 8", "Google", "smartphones", 29999, 4.5, false, 50)
	add("lg-oled-c3", "LG OLED evo C3 55", "LG", "tv", 54999, 4.8, true, 80)
	add("lg-nanocell-50", "LG NanoCell 50", "LG", "tv", 18999, 4.2, true, 55)
	add("samsung-qled-q60", "Samsung QLED Q60C 55", "Samsung", "tv", 25999, 4.4, true, 65)
	return c
}
