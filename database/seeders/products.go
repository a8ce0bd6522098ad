package seeders

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"dukaan/app/models"
)

func init() {
	Register("sample-products", SeedProducts)
}

// SeedProducts loads a small starter catalog into an empty products
// collection.
func SeedProducts(ctx context.Context, db *mongo.Database) error {
	col := db.Collection("products")

	n, err := col.EstimatedDocumentCount(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	now := time.Now()
	samples := []models.Product{
		{Name: "Basmati Rice 5kg", Price: 520, Category: "grocery"},
		{Name: "Sunflower Oil 1l", Price: 140, Category: "grocery"},
		{Name: "Toor Dal 1kg", Price: 160, Category: "grocery"},
		{Name: "Whole Wheat Atta 10kg", Price: 430, Category: "grocery"},
		{Name: "Tea Powder 500g", Price: 250, Category: "beverages"},
		{Name: "Dishwash Liquid 750ml", Price: 99, Category: "household"},
	}

	docs := make([]interface{}, 0, len(samples))
	for _, p := range samples {
		p.InStock = true
		p.CreatedAt = now
		p.UpdatedAt = now
		docs = append(docs, p)
	}
	_, err = col.InsertMany(ctx, docs)
	return err
}
