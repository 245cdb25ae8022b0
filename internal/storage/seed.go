package storage

import "github.com/shopspring/decimal"

const unsplash = "https://images.unsplash.com/"

const imageParams = "?ixlib=rb-4.0.3&ixid=M3wxMjA3fDB8MHxwaG90by1wYWdlfHx8fGVufDB8fHx8fA%3D%3D&auto=format&fit=crop&w=800&q=80"

// SeedCatalog returns the fixed starting catalog in id order.
func SeedCatalog() []NewProduct {
	return []NewProduct{
		seed("Wireless Bluetooth Headphones", "High-quality wireless headphones with noise cancellation",
			"79.99", "photo-1505740420928-5e560c06d30e", "Electronics", "4.5", 50),
		seed("Classic Cotton T-Shirt", "Comfortable 100% cotton t-shirt in various colors",
			"24.99", "photo-1521572163474-6864f9cf17ab", "Clothing", "4.2", 100),
		seed("Stainless Steel Water Bottle", "Insulated water bottle that keeps drinks cold for 24 hours",
			"34.99", "photo-1602143407151-7111542de6e8", "Home & Garden", "4.8", 75),
		seed("Bestselling Novel Collection", "Collection of award-winning novels from contemporary authors",
			"19.99", "photo-1544947950-fa07a98d237f", "Books", "4.6", 30),
		seed("Yoga Mat with Carrying Strap", "Non-slip yoga mat with excellent grip and cushioning",
			"49.99", "photo-1544367567-0f2fcb009e0b", "Sports", "4.4", 25),
		seed("Ceramic Coffee Mug Set", "Set of 4 handcrafted ceramic mugs with unique designs",
			"29.99", "photo-1514228742587-6b1558fcf93a", "Home & Garden", "4.3", 40),
		seed("Wireless Charging Pad", "Fast wireless charging pad compatible with all Qi devices",
			"39.99", "photo-1586953208448-b95a79798f07", "Electronics", "4.1", 60),
		seed("Denim Jacket", "Classic denim jacket with modern fit and premium fabric",
			"89.99", "photo-1551028719-00167b16eac5", "Clothing", "4.7", 35),
		seed("LED Desk Lamp", "Adjustable LED desk lamp with touch controls and USB charging",
			"54.99", "photo-1507003211169-0a1dd7228f2d", "Home & Garden", "4.5", 20),
		seed("Running Shoes", "High-performance running shoes with advanced cushioning",
			"129.99", "photo-1542291026-7eec264c27ff", "Sports", "4.9", 45),
		seed("Bluetooth Speaker", "Portable Bluetooth speaker with 360° sound and waterproof design",
			"59.99", "photo-1608043152269-423dbba4e7e1", "Electronics", "4.6", 55),
		seed("Mystery Novel Bundle", "Bundle of 5 gripping mystery novels by acclaimed authors",
			"32.99", "photo-1481627834876-b7833e8f5570", "Books", "4.4", 25),
	}
}

func seed(name, desc, price, photo, category, rating string, stock int) NewProduct {
	return NewProduct{
		Name:        name,
		Description: desc,
		Price:       decimal.RequireFromString(price),
		Image:       unsplash + photo + imageParams,
		Category:    category,
		Rating:      decimal.RequireFromString(rating),
		Stock:       &stock,
	}
}
