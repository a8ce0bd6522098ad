package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dukaan/app/models"
	"dukaan/app/services"
)

// OrderRepository stores orders. Every lifecycle write goes through
// FindOneAndUpdate with the expected current status in the filter, so two
// concurrent writers can never both apply the same transition.
type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection("orders")}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, o)
	return mapErr(err)
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID primitive.ObjectID, f services.OrderFilter) ([]models.Order, int64, error) {
	return r.list(ctx, bson.M{"customer": customerID}, f)
}

func (r *OrderRepository) ListByDriver(ctx context.Context, driverID primitive.ObjectID, f services.OrderFilter) ([]models.Order, int64, error) {
	return r.list(ctx, bson.M{"deliveryBoy": driverID}, f)
}

func (r *OrderRepository) List(ctx context.Context, f services.OrderFilter) ([]models.Order, int64, error) {
	return r.list(ctx, bson.M{}, f)
}

func (r *OrderRepository) list(ctx context.Context, filter bson.M, f services.OrderFilter) ([]models.Order, int64, error) {
	if f.Status != "" {
		filter["status"] = f.Status
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, mapErr(err)
	}

	skip, lim := pageWindow(f.Page, f.Limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(lim)
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer cur.Close(ctx)

	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, 0, mapErr(err)
	}
	return orders, total, nil
}

func (r *OrderRepository) Assign(ctx context.Context, orderID, driverID primitive.ObjectID) (*models.Order, error) {
	return r.findAndUpdate(ctx,
		bson.M{"_id": orderID, "status": models.StatusPending},
		bson.M{"$set": bson.M{
			"deliveryBoy": driverID,
			"status":      models.StatusAssigned,
			"updatedAt":   time.Now(),
		}},
	)
}

func (r *OrderRepository) SetScanned(ctx context.Context, orderID primitive.ObjectID, at time.Time) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"scannedAt": at, "updatedAt": at}},
	)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return mapErr(mongo.ErrNoDocuments)
	}
	return nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error) {
	return r.findAndUpdate(ctx,
		bson.M{"_id": orderID, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
}

func (r *OrderRepository) MarkDelivered(ctx context.Context, orderID primitive.ObjectID, method models.PaymentMethod, at time.Time) (*models.Order, error) {
	return r.findAndUpdate(ctx,
		bson.M{
			"_id":    orderID,
			"status": bson.M{"$nin": bson.A{models.StatusDelivered, models.StatusCancelled}},
		},
		bson.M{"$set": bson.M{
			"status":        models.StatusDelivered,
			"deliveredAt":   at,
			"paymentMethod": method,
			"paymentStatus": models.DerivePaymentStatus(method),
			"updatedAt":     at,
		}},
	)
}

func (r *OrderRepository) ForceStatus(ctx context.Context, orderID primitive.ObjectID, to models.OrderStatus) (*models.Order, error) {
	return r.findAndUpdate(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
}

func (r *OrderRepository) findAndUpdate(ctx context.Context, filter, update bson.M) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var o models.Order
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&o); err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context, since time.Time) (map[models.OrderStatus]int64, error) {
	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, mapErr(err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Status models.OrderStatus `bson:"_id"`
		Count  int64              `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, mapErr(err)
	}
	out := make(map[models.OrderStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *OrderRepository) RevenueByMethod(ctx context.Context, since time.Time) ([]services.MethodRevenue, error) {
	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status":      models.StatusDelivered,
			"deliveredAt": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$paymentMethod",
			"total": bson.M{"$sum": "$totalAmount"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total", Value: -1}}}},
	})
	if err != nil {
		return nil, mapErr(err)
	}
	defer cur.Close(ctx)

	var rows []services.MethodRevenue
	if err := cur.All(ctx, &rows); err != nil {
		return nil, mapErr(err)
	}
	return rows, nil
}

func (r *OrderRepository) UnpaidCount(ctx context.Context, since time.Time) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{
		"paymentStatus": models.PaymentUnpaid,
		"deliveredAt":   bson.M{"$gte": since},
	})
	if err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

func (r *OrderRepository) RevenueByDay(ctx context.Context, days int) ([]services.DailyRevenue, error) {
	since := time.Now().AddDate(0, 0, -days)
	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status":      models.StatusDelivered,
			"deliveredAt": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   "$deliveredAt",
			}},
			"total": bson.M{"$sum": "$totalAmount"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return nil, mapErr(err)
	}
	defer cur.Close(ctx)

	var rows []services.DailyRevenue
	if err := cur.All(ctx, &rows); err != nil {
		return nil, mapErr(err)
	}
	return rows, nil
}
