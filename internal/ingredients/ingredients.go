// Package ingredients manages ingredient metadata of products.
package ingredients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bool64/ctxd"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is a name of ingredients collection.
const CollectionName = "ingredients"

// Errors.
var (
	ErrNotFound  = errors.New("ingredient not found")
	ErrInvalid   = errors.New("invalid ingredient")
	ErrDuplicate = errors.New("ingredient already exists")
)

// Ingredient describes a product ingredient.
type Ingredient struct {
	IngredientID    string `bson:"ingredient_id" json:"ingredient_id"`
	IngredientName  string `bson:"ingredient_name" json:"ingredient_name"`
	ProductID       string `bson:"product_id" json:"product_id"`
	IngredientImage string `bson:"ingredient_image,omitempty" json:"ingredient_image,omitempty"`
}

// Validate checks required fields.
func (i Ingredient) Validate() error {
	var missing []string

	if i.IngredientID == "" {
		missing = append(missing, "ingredient_id")
	}

	if i.IngredientName == "" {
		missing = append(missing, "ingredient_name")
	}

	if i.ProductID == "" {
		missing = append(missing, "product_id")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalid, strings.Join(missing, ", "))
	}

	return nil
}

// Update holds fields to change, nil fields are kept.
type Update struct {
	IngredientName  *string `bson:"ingredient_name,omitempty" json:"ingredient_name,omitempty"`
	ProductID       *string `bson:"product_id,omitempty" json:"product_id,omitempty"`
	IngredientImage *string `bson:"ingredient_image,omitempty" json:"ingredient_image,omitempty"`
}

func (u Update) empty() bool {
	return u.IngredientName == nil && u.ProductID == nil && u.IngredientImage == nil
}

// Store keeps ingredients in a MongoDB collection.
type Store struct {
	coll *mongo.Collection
	log  ctxd.Logger
}

// NewStore creates Store on collection.
func NewStore(coll *mongo.Collection, logger ctxd.Logger) *Store {
	if logger == nil {
		logger = ctxd.NoOpLogger{}
	}

	return &Store{coll: coll, log: logger}
}

// EnsureIndexes creates unique ingredient_id and product_id indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ingredient_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "product_id", Value: 1}}},
	})

	return err
}

// Add inserts a new ingredient.
func (s *Store) Add(ctx context.Context, i Ingredient) (Ingredient, error) {
	if err := i.Validate(); err != nil {
		return Ingredient{}, err
	}

	if _, err := s.coll.InsertOne(ctx, i); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Ingredient{}, fmt.Errorf("%w: %s", ErrDuplicate, i.IngredientID)
		}

		return Ingredient{}, ctxd.WrapError(ctx, err, "failed to insert ingredient", "ingredient_id", i.IngredientID)
	}

	s.log.Info(ctx, "ingredient added", "ingredient_id", i.IngredientID, "product_id", i.ProductID)

	return i, nil
}

// List returns all ingredients, or ingredients of a product when productID is not empty.
func (s *Store) List(ctx context.Context, productID string) ([]Ingredient, error) {
	filter := bson.D{}
	if productID != "" {
		filter = bson.D{{Key: "product_id", Value: productID}}
	}

	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, ctxd.WrapError(ctx, err, "failed to find ingredients")
	}

	res := []Ingredient{}
	if err := cur.All(ctx, &res); err != nil {
		return nil, ctxd.WrapError(ctx, err, "failed to decode ingredients")
	}

	return res, nil
}

// Update changes fields of ingredient by its ingredient_id.
func (s *Store) Update(ctx context.Context, ingredientID string, u Update) error {
	if u.empty() {
		return fmt.Errorf("%w: nothing to update", ErrInvalid)
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "ingredient_id", Value: ingredientID}},
		bson.D{{Key: "$set", Value: u}},
	)
	if err != nil {
		return ctxd.WrapError(ctx, err, "failed to update ingredient", "ingredient_id", ingredientID)
	}

	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes ingredient by its ingredient_id.
func (s *Store) Delete(ctx context.Context, ingredientID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "ingredient_id", Value: ingredientID}})
	if err != nil {
		return ctxd.WrapError(ctx, err, "failed to delete ingredient", "ingredient_id", ingredientID)
	}

	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	s.log.Info(ctx, "ingredient deleted", "ingredient_id", ingredientID)

	return nil
}
