package reviews

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is a name of reviews collection.
const CollectionName = "reviews"

var _ Repository = &MongoRepository{}

// MongoRepository stores reviews in a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates repository on collection.
func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

// EnsureIndexes creates indexes used by queries.
func (m *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "productId", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})

	return err
}

// Find returns a page of product reviews.
func (m *MongoRepository) Find(
	ctx context.Context,
	productID string,
	sortField string,
	desc bool,
	skip, limit int64,
) ([]Review, error) {
	order := 1
	if desc {
		order = -1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: order}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := m.coll.Find(ctx, bson.D{{Key: "productId", Value: productID}}, opts)
	if err != nil {
		return nil, err
	}

	var res []Review
	if err := cur.All(ctx, &res); err != nil {
		return nil, err
	}

	return res, nil
}

// Count returns number of product reviews.
func (m *MongoRepository) Count(ctx context.Context, productID string) (int64, error) {
	return m.coll.CountDocuments(ctx, bson.D{{Key: "productId", Value: productID}})
}

func ratingCount(r int) bson.D {
	return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{"$rating", r}}}, 1, 0,
	}}}}}
}

// Stats aggregates product ratings.
func (m *MongoRepository) Stats(ctx context.Context, productID string) (Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "productId", Value: productID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "averageRating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "totalReviews", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "rating1", Value: ratingCount(1)},
			{Key: "rating2", Value: ratingCount(2)},
			{Key: "rating3", Value: ratingCount(3)},
			{Key: "rating4", Value: ratingCount(4)},
			{Key: "rating5", Value: ratingCount(5)},
		}}},
	}

	cur, err := m.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return Stats{}, err
	}

	var rows []struct {
		AverageRating float64 `bson:"averageRating"`
		TotalReviews  int64   `bson:"totalReviews"`
		Rating1       int64   `bson:"rating1"`
		Rating2       int64   `bson:"rating2"`
		Rating3       int64   `bson:"rating3"`
		Rating4       int64   `bson:"rating4"`
		Rating5       int64   `bson:"rating5"`
	}

	if err := cur.All(ctx, &rows); err != nil {
		return Stats{}, err
	}

	if len(rows) == 0 {
		return Stats{RatingDistribution: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}, nil
	}

	r := rows[0]

	return Stats{
		AverageRating: r.AverageRating,
		TotalReviews:  r.TotalReviews,
		RatingDistribution: map[int]int64{
			1: r.Rating1,
			2: r.Rating2,
			3: r.Rating3,
			4: r.Rating4,
			5: r.Rating5,
		},
	}, nil
}

// Insert stores a new review and sets its ID.
func (m *MongoRepository) Insert(ctx context.Context, r *Review) error {
	res, err := m.coll.InsertOne(ctx, r)
	if err != nil {
		return err
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		r.ID = id
	}

	return nil
}

// IncHelpful increments helpful counter and returns updated review.
func (m *MongoRepository) IncHelpful(ctx context.Context, reviewID string) (Review, error) {
	id, err := primitive.ObjectIDFromHex(reviewID)
	if err != nil {
		return Review{}, ErrNotFound
	}

	var r Review

	err = m.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "helpful", Value: 1}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Review{}, ErrNotFound
	}

	return r, err
}

// Delete removes a review of a product.
func (m *MongoRepository) Delete(ctx context.Context, productID, reviewID string) error {
	id, err := primitive.ObjectIDFromHex(reviewID)
	if err != nil {
		return ErrNotFound
	}

	res, err := m.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}, {Key: "productId", Value: productID}})
	if err != nil {
		return err
	}

	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}
