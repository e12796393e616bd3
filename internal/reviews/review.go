// Package reviews manages product reviews.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bool64/ctxd"
	"github.com/dustin/go-humanize"
	"github.com/elinofoods/storefront/cache"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RatingTTL is a cache lifetime of product rating summary.
const RatingTTL = 300 * time.Second

// Errors.
var (
	ErrInvalid  = errors.New("invalid review")
	ErrNotFound = errors.New("review not found")
)

// Review is a customer review of a product.
type Review struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ProductID  string             `bson:"productId" json:"productId"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Location   string             `bson:"location" json:"location"`
	Rating     int                `bson:"rating" json:"rating"`
	Comment    string             `bson:"comment" json:"comment"`
	IsVerified bool               `bson:"isVerified" json:"isVerified"`
	Helpful    int                `bson:"helpful" json:"helpful"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`

	FormattedDate string `bson:"-" json:"formattedDate"`
}

// Input is a new review submitted by a customer.
type Input struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Location string `json:"location"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

// Query selects a page of reviews.
type Query struct {
	Page  int
	Limit int
	// Sort is a field name, "-" prefix means descending order, default "-createdAt".
	Sort string
}

// Stats summarizes ratings of a product.
type Stats struct {
	AverageRating      float64       `json:"averageRating"`
	TotalReviews       int64         `json:"totalReviews"`
	RatingDistribution map[int]int64 `json:"ratingDistribution,omitempty"`
}

// Pagination describes a page position.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalReviews int64 `json:"totalReviews"`
	HasMore      bool  `json:"hasMore"`
}

// Page is a list result.
type Page struct {
	Reviews    []Review   `json:"reviews"`
	Pagination Pagination `json:"pagination"`
	Stats      Stats      `json:"stats"`
}

// Repository persists reviews.
type Repository interface {
	Find(ctx context.Context, productID string, sortField string, desc bool, skip, limit int64) ([]Review, error)
	Count(ctx context.Context, productID string) (int64, error)
	Stats(ctx context.Context, productID string) (Stats, error)
	Insert(ctx context.Context, r *Review) error
	IncHelpful(ctx context.Context, reviewID string) (Review, error)
	Delete(ctx context.Context, productID, reviewID string) error
}

var sortFields = map[string]bool{
	"createdAt": true,
	"rating":    true,
	"helpful":   true,
}

// ServiceConfig controls Service.
type ServiceConfig struct {
	Logger ctxd.Logger
	// Ratings caches rating summaries, nil disables caching.
	Ratings *cache.ReadThrough
	Now     func() time.Time
}

// Service implements review use cases.
type Service struct {
	repo    Repository
	ratings *cache.ReadThrough
	log     ctxd.Logger
	now     func() time.Time
}

// NewService creates Service.
func NewService(repo Repository, cfg ServiceConfig) *Service {
	s := &Service{
		repo:    repo,
		ratings: cfg.Ratings,
		log:     cfg.Logger,
		now:     cfg.Now,
	}

	if s.log == nil {
		s.log = ctxd.NoOpLogger{}
	}

	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// RatingKey is a cache key of product rating summary.
func RatingKey(productID string) string {
	return "reviews:rating:" + productID
}

// List returns a page of product reviews with rating stats.
func (s *Service) List(ctx context.Context, productID string, q Query) (Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}

	if q.Limit < 1 {
		q.Limit = 10
	}

	if q.Limit > 100 {
		q.Limit = 100
	}

	if q.Sort == "" {
		q.Sort = "-createdAt"
	}

	field, desc := strings.TrimPrefix(q.Sort, "-"), strings.HasPrefix(q.Sort, "-")
	if !sortFields[field] {
		return Page{}, fmt.Errorf("%w: unsupported sort field %q", ErrInvalid, field)
	}

	skip := int64(q.Page-1) * int64(q.Limit)

	items, err := s.repo.Find(ctx, productID, field, desc, skip, int64(q.Limit))
	if err != nil {
		return Page{}, ctxd.WrapError(ctx, err, "failed to find reviews", "productId", productID)
	}

	total, err := s.repo.Count(ctx, productID)
	if err != nil {
		return Page{}, ctxd.WrapError(ctx, err, "failed to count reviews", "productId", productID)
	}

	stats, err := s.repo.Stats(ctx, productID)
	if err != nil {
		return Page{}, ctxd.WrapError(ctx, err, "failed to aggregate review stats", "productId", productID)
	}

	stats.AverageRating = roundRating(stats.AverageRating)
	stats.TotalReviews = total

	if stats.RatingDistribution == nil {
		stats.RatingDistribution = map[int]int64{}
	}

	for r := 1; r <= 5; r++ {
		if _, ok := stats.RatingDistribution[r]; !ok {
			stats.RatingDistribution[r] = 0
		}
	}

	now := s.now()
	for i := range items {
		items[i].FormattedDate = FormatDate(items[i].CreatedAt, now)
	}

	if items == nil {
		items = []Review{}
	}

	return Page{
		Reviews: items,
		Pagination: Pagination{
			CurrentPage:  q.Page,
			TotalPages:   int(math.Ceil(float64(total) / float64(q.Limit))),
			TotalReviews: total,
			HasMore:      skip+int64(len(items)) < total,
		},
		Stats: stats,
	}, nil
}

// Create validates and stores a new review.
func (s *Service) Create(ctx context.Context, productID string, in Input) (Review, error) {
	r := Review{
		ProductID: productID,
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Location:  strings.TrimSpace(in.Location),
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}

	if r.Name == "" || r.Rating == 0 || r.Comment == "" {
		return Review{}, fmt.Errorf("%w: name, rating, and comment are required", ErrInvalid)
	}

	if r.Rating < 1 || r.Rating > 5 {
		return Review{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalid)
	}

	if err := s.repo.Insert(ctx, &r); err != nil {
		return Review{}, ctxd.WrapError(ctx, err, "failed to insert review", "productId", productID)
	}

	r.FormattedDate = FormatDate(r.CreatedAt, r.CreatedAt)

	s.forgetRating(ctx, productID)
	s.log.Info(ctx, "review created", "productId", productID, "rating", r.Rating)

	return r, nil
}

// MarkHelpful increments helpful counter of a review.
func (s *Service) MarkHelpful(ctx context.Context, reviewID string) (Review, error) {
	r, err := s.repo.IncHelpful(ctx, reviewID)
	if err != nil {
		return Review{}, err
	}

	r.FormattedDate = FormatDate(r.CreatedAt, s.now())

	return r, nil
}

// Delete removes a review of a product.
func (s *Service) Delete(ctx context.Context, productID, reviewID string) error {
	if err := s.repo.Delete(ctx, productID, reviewID); err != nil {
		return err
	}

	s.forgetRating(ctx, productID)

	return nil
}

// Rating returns product rating summary, cached when configured.
func (s *Service) Rating(ctx context.Context, productID string) (Stats, error) {
	build := func(ctx context.Context) (interface{}, error) {
		st, err := s.repo.Stats(ctx, productID)
		if err != nil {
			return nil, err
		}

		return Stats{
			AverageRating: roundRating(st.AverageRating),
			TotalReviews:  st.TotalReviews,
		}, nil
	}

	if s.ratings == nil {
		v, err := build(ctx)
		if err != nil {
			return Stats{}, err
		}

		return v.(Stats), nil
	}

	v, _, err := s.ratings.Get(ctx, RatingKey(productID), RatingTTL, build)
	if err != nil {
		return Stats{}, err
	}

	st, ok := v.(Stats)
	if !ok {
		return Stats{}, fmt.Errorf("unexpected cached value %T", v)
	}

	return st, nil
}

func (s *Service) forgetRating(ctx context.Context, productID string) {
	if s.ratings != nil {
		s.ratings.Store().Delete(ctx, RatingKey(productID))
	}
}

func roundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

const day = 24 * time.Hour

// ageMagnitudes round review age down to whole units, a month is 30 days and a year is 365 days.
var ageMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "Just now", DivBy: 1},
	{D: 2 * time.Minute, Format: "1 minute %s", DivBy: 1},
	{D: time.Hour, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s", DivBy: 1},
	{D: day, Format: "%d hours %s", DivBy: time.Hour},
	{D: 2 * day, Format: "Yesterday", DivBy: 1},
	{D: 7 * day, Format: "%d days %s", DivBy: day},
	{D: 14 * day, Format: "1 week %s", DivBy: 1},
	{D: 30 * day, Format: "%d weeks %s", DivBy: 7 * day},
	{D: 60 * day, Format: "1 month %s", DivBy: 1},
	{D: 365 * day, Format: "%d months %s", DivBy: 30 * day},
	{D: 730 * day, Format: "1 year %s", DivBy: 1},
	{D: math.MaxInt64, Format: "%d years %s", DivBy: 365 * day},
}

// FormatDate renders review age relative to now, future dates are treated as past.
func FormatDate(t, now time.Time) string {
	return humanize.CustomRelTime(t, now, "ago", "ago", ageMagnitudes)
}
