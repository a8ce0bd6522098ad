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

// ProfileRepository stores driver profiles, one per user.
type ProfileRepository struct {
	col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection("delivery_profiles")}
}

func (r *ProfileRepository) Create(ctx context.Context, p *models.DeliveryProfile) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, p)
	return mapErr(err)
}

func (r *ProfileRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.DeliveryProfile, error) {
	var p models.DeliveryProfile
	if err := r.col.FindOne(ctx, bson.M{"user": userID}).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *models.DeliveryProfile) error {
	p.UpdatedAt = time.Now()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return mapErr(mongo.ErrNoDocuments)
	}
	return nil
}

// RecordDelivery is a single $inc so concurrent settlements never lose an
// increment.
func (r *ProfileRepository) RecordDelivery(ctx context.Context, userID primitive.ObjectID, earnings float64) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"user": userID},
		bson.M{
			"$inc": bson.M{"totalDeliveries": 1, "totalEarnings": earnings},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return mapErr(mongo.ErrNoDocuments)
	}
	return nil
}

func (r *ProfileRepository) Leaderboard(ctx context.Context, topN int) ([]models.DeliveryProfile, error) {
	if topN <= 0 || topN > 100 {
		topN = 10
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "totalDeliveries", Value: -1}, {Key: "totalEarnings", Value: -1}}).
		SetLimit(int64(topN))
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mapErr(err)
	}
	defer cur.Close(ctx)

	var profiles []models.DeliveryProfile
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, mapErr(err)
	}
	return profiles, nil
}
