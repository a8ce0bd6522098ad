package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dukaan/app/models"
)

// TransactionRepository stores the payment read-model. The unique index on
// the order reference makes Create idempotent per order: a settlement retry
// surfaces services.ErrDuplicate instead of a second row.
type TransactionRepository struct {
	col *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{col: db.Collection("transactions")}
}

func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	t.CreatedAt = time.Now()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, t)
	return mapErr(err)
}

func (r *TransactionRepository) ListByDriver(ctx context.Context, driverID primitive.ObjectID, page, limit int) ([]models.Transaction, int64, error) {
	filter := bson.M{"deliveryBoy": driverID}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, mapErr(err)
	}

	skip, lim := pageWindow(page, limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(lim)
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer cur.Close(ctx)

	var txs []models.Transaction
	if err := cur.All(ctx, &txs); err != nil {
		return nil, 0, mapErr(err)
	}
	return txs, total, nil
}
