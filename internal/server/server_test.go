package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bool64/stats"
	"github.com/elinofoods/storefront/cache"
	"github.com/elinofoods/storefront/internal/catalog"
	"github.com/elinofoods/storefront/internal/customers"
	"github.com/elinofoods/storefront/internal/ingredients"
	"github.com/elinofoods/storefront/internal/orders"
	"github.com/elinofoods/storefront/internal/reviews"
	"github.com/elinofoods/storefront/internal/server"
	"github.com/elinofoods/storefront/internal/shopify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type upstream struct {
	requests int
	fail     error
}

func (u *upstream) Request(_ context.Context, query string, variables map[string]interface{}) (gjson.Result, error) {
	u.requests++

	if u.fail != nil {
		return gjson.Result{}, u.fail
	}

	switch {
	case strings.Contains(query, "quickList"):
		return gjson.Parse(`{"products":{"edges":[{"node":{"id":"gid://shopify/Product/1","title":"Mango Bar",
			"handle":"mango-bar","priceRange":{"minVariantPrice":{"amount":"120"}},
			"featuredImage":{"url":"https://cdn/m.webp"},"availableForSale":true}}]}}`), nil
	case strings.Contains(query, "getProductById"):
		if variables["id"] == "gid://shopify/Product/1" {
			return gjson.Parse(`{"product":{"id":"gid://shopify/Product/1"}}`), nil
		}

		return gjson.Parse(`{"product":null}`), nil
	case strings.Contains(query, "getProductByHandle"):
		return gjson.Parse(`{"productByHandle":{"handle":"mango-bar"}}`), nil
	case strings.Contains(query, "query adminProduct("):
		return gjson.Parse(`{"productByHandle":{"handle":"mango-bar"}}`), nil
	case strings.Contains(query, "shop"):
		return gjson.Parse(`{"shop":{"name":"Elino"}}`), nil
	}

	return gjson.Parse(`{"products":{"edges":[]}}`), nil
}

func (u *upstream) Get(_ context.Context, path string, _ url.Values) (gjson.Result, error) {
	switch path {
	case "orders.json":
		return gjson.Parse(`{"orders":[{"total_price":"10.5","line_items":[{"title":"Mango Bar","quantity":3}]},
			{"total_price":"4.5","line_items":[]}]}`), nil
	case "customers/count.json":
		return gjson.Parse(`{"count":2}`), nil
	case "customers/7.json":
		return gjson.Parse(`{"customer":{"id":7,"first_name":"Asha","last_name":"Rao"}}`), nil
	case "customers/8.json":
		return gjson.Result{}, &shopify.Error{Status: http.StatusNotFound}
	}

	return gjson.Result{}, errors.New("unexpected path")
}

func (u *upstream) Put(_ context.Context, path string, _ interface{}) (gjson.Result, error) {
	if path == "customers/7.json" {
		return gjson.Parse(`{"customer":{"id":7,"first_name":"Asha"}}`), nil
	}

	return gjson.Result{}, &shopify.Error{Status: http.StatusUnprocessableEntity, Body: `{"errors":"not found"}`}
}

type fakeIngredients struct {
	items map[string]ingredients.Ingredient
}

func (f *fakeIngredients) Add(_ context.Context, i ingredients.Ingredient) (ingredients.Ingredient, error) {
	if err := i.Validate(); err != nil {
		return ingredients.Ingredient{}, err
	}

	if _, ok := f.items[i.IngredientID]; ok {
		return ingredients.Ingredient{}, ingredients.ErrDuplicate
	}

	f.items[i.IngredientID] = i

	return i, nil
}

func (f *fakeIngredients) List(_ context.Context, _ string) ([]ingredients.Ingredient, error) {
	res := []ingredients.Ingredient{}
	for _, i := range f.items {
		res = append(res, i)
	}

	return res, nil
}

func (f *fakeIngredients) Update(_ context.Context, id string, u ingredients.Update) error {
	i, ok := f.items[id]
	if !ok {
		return ingredients.ErrNotFound
	}

	if u.IngredientName != nil {
		i.IngredientName = *u.IngredientName
	}

	f.items[id] = i

	return nil
}

func (f *fakeIngredients) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return ingredients.ErrNotFound
	}

	delete(f.items, id)

	return nil
}

type fakeReviews struct {
	created []reviews.Input
}

func (f *fakeReviews) List(_ context.Context, productID string, q reviews.Query) (reviews.Page, error) {
	return reviews.Page{
		Reviews:    []reviews.Review{{ProductID: productID, Rating: 5}},
		Pagination: reviews.Pagination{CurrentPage: q.Page, TotalPages: 1, TotalReviews: 1},
	}, nil
}

func (f *fakeReviews) Create(_ context.Context, productID string, in reviews.Input) (reviews.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return reviews.Review{}, fmt.Errorf("%w: rating must be between 1 and 5", reviews.ErrInvalid)
	}

	f.created = append(f.created, in)

	return reviews.Review{ProductID: productID, Name: in.Name, Rating: in.Rating}, nil
}

func (f *fakeReviews) Rating(_ context.Context, _ string) (reviews.Stats, error) {
	return reviews.Stats{AverageRating: 4.5, TotalReviews: 2}, nil
}

func (f *fakeReviews) MarkHelpful(_ context.Context, _ string) (reviews.Review, error) {
	return reviews.Review{}, reviews.ErrNotFound
}

func (f *fakeReviews) Delete(_ context.Context, _, _ string) error {
	return nil
}

type env struct {
	srv      *httptest.Server
	up       *upstream
	store    *cache.Memory
	reviews  *fakeReviews
	stats    *stats.TrackerMock
	invalids *cache.Invalidator
}

func newEnv(t *testing.T, withStorage bool) *env {
	t.Helper()

	e := &env{
		up:      &upstream{},
		store:   cache.NewMemory(cache.Config{SweepInterval: -1}),
		reviews: &fakeReviews{},
		stats:   &stats.TrackerMock{},
	}
	t.Cleanup(e.store.Close)

	e.invalids = &cache.Invalidator{SkipInterval: time.Hour}
	e.invalids.Add(e.store.DeleteAll)

	cfg := server.Config{
		Catalog:     catalog.New(e.up, cache.NewReadThrough(e.store, cache.ReadThroughConfig{}), nil),
		Orders:      orders.NewService(e.up, nil),
		Customers:   customers.NewService(e.up, nil),
		Cache:       e.store,
		CacheMode:   "memory",
		Invalidator: e.invalids,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("metrics"))
		}),
		Stats:        e.stats,
		MaxBodyBytes: 1024,
	}

	if withStorage {
		cfg.Reviews = e.reviews
		cfg.Ingredients = &fakeIngredients{items: map[string]ingredients.Ingredient{}}
	}

	e.srv = httptest.NewServer(server.New(cfg))
	t.Cleanup(e.srv.Close)

	return e
}

func (e *env) do(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(b)
}

func TestServer_quickProducts(t *testing.T) {
	e := newEnv(t, false)

	resp, body := e.do(t, http.MethodGet, "/api/shopify/products/quick", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Equal(t, "public, max-age=60", resp.Header.Get("Cache-Control"))
	assert.JSONEq(t, `[{"id":"1","title":"Mango Bar","handle":"mango-bar","price":120,
		"image":"https://cdn/m.webp","available":true}]`, body)

	resp, body2 := e.do(t, http.MethodGet, "/api/shopify/products/quick", "")
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, body, body2)
	assert.Equal(t, 1, e.up.requests)

	_, found := e.store.Get(context.Background(), catalog.QuickListKey)
	assert.True(t, found)
}

func TestServer_products(t *testing.T) {
	e := newEnv(t, false)

	resp, body := e.do(t, http.MethodGet, "/api/shopify/products/id/1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.JSONEq(t, `{"id":"gid://shopify/Product/1"}`, body)

	resp, _ = e.do(t, http.MethodGet, "/api/shopify/products/1", "")
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

	resp, body = e.do(t, http.MethodGet, "/api/shopify/products/handle/mango-bar", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"handle":"mango-bar"}`, body)

	resp, body = e.do(t, http.MethodGet, "/api/shopify/products/id/2", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"product not found"}`, body)

	resp, _ = e.do(t, http.MethodGet, "/api/shopify/products/id/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = e.do(t, http.MethodGet, "/api/shopify/products/search", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "search query 'q' is required")

	resp, body = e.do(t, http.MethodGet, "/api/shopify/products?category=fruit-jerky", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, body)

	resp, body = e.do(t, http.MethodGet, "/api/shopify/test-connection", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Elino", gjson.Get(body, "shop.name").String())
}

func TestServer_upstreamErrors(t *testing.T) {
	e := newEnv(t, false)

	e.up.fail = &shopify.Error{Status: http.StatusUnauthorized, Body: "bad token"}
	resp, _ := e.do(t, http.MethodGet, "/api/shopify/products/quick", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	e.up.fail = errors.New("connection refused")
	resp, body := e.do(t, http.MethodGet, "/api/shopify/products/quick", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"Failed to fetch products"}`, body)

	assert.Equal(t, 0, e.store.Len())
}

func TestServer_clearCache(t *testing.T) {
	e := newEnv(t, false)

	e.do(t, http.MethodGet, "/api/shopify/products/quick", "")
	require.Equal(t, 1, e.store.Len())

	resp, body := e.do(t, http.MethodPost, "/api/shopify/products/cache/clear", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true,"message":"Cache cleared"}`, body)
	assert.Equal(t, 0, e.store.Len())

	resp, _ = e.do(t, http.MethodPost, "/api/shopify/products/cache/clear", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestServer_health(t *testing.T) {
	e := newEnv(t, false)

	e.store.Set(context.Background(), "k", 1, 0)

	resp, body := e.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", gjson.Get(body, "status").String())
	assert.Equal(t, int64(1), gjson.Get(body, "cache.size").Int())
	assert.Equal(t, "memory", gjson.Get(body, "cache.type").String())
	assert.True(t, gjson.Get(body, "timestamp").Exists())
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	_, body = e.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, "metrics", body)

	resp, body = e.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "running")

	resp, body = e.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"Route not found"}`, body)

	assert.Equal(t, 4, e.stats.Int(server.MetricRequest))
}

func TestServer_revenue(t *testing.T) {
	e := newEnv(t, false)

	resp, body := e.do(t, http.MethodGet, "/api/admin/revenue/total", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true,"totalRevenue":15,"currency":"INR","orderCount":2}`, body)

	resp, _ = e.do(t, http.MethodGet, "/api/admin/revenue?startDate=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_storageDisabled(t *testing.T) {
	e := newEnv(t, false)

	resp, _ := e.do(t, http.MethodGet, "/api/shopify/reviews/1", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/api/admin/ingredients/getingredients", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_reviews(t *testing.T) {
	e := newEnv(t, true)

	resp, body := e.do(t, http.MethodGet, "/api/shopify/reviews/42?page=2", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, gjson.Get(body, "success").Bool())
	assert.Equal(t, int64(2), gjson.Get(body, "data.pagination.currentPage").Int())

	resp, body = e.do(t, http.MethodPost, "/api/shopify/reviews/42", `{"name":"Asha","rating":5,"comment":"Yum"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Asha", gjson.Get(body, "data.name").String())
	require.Len(t, e.reviews.created, 1)

	resp, body = e.do(t, http.MethodPost, "/api/shopify/reviews/42", `{"name":"Asha","rating":9,"comment":"Yum"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid review: rating must be between 1 and 5", gjson.Get(body, "error").String())

	resp, _ = e.do(t, http.MethodPost, "/api/shopify/reviews/42", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/api/shopify/reviews/42", `{"comment":"`+strings.Repeat("a", 2048)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, body = e.do(t, http.MethodGet, "/api/shopify/reviews/42/rating", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4.5, gjson.Get(body, "data.averageRating").Float())

	resp, _ = e.do(t, http.MethodPost, "/api/shopify/reviews/42/abc/helpful", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = e.do(t, http.MethodDelete, "/api/shopify/reviews/42/abc", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_ingredients(t *testing.T) {
	e := newEnv(t, true)

	resp, body := e.do(t, http.MethodPost, "/api/admin/ingredients/addingredient",
		`{"ingredient_id":"i1","ingredient_name":"Mango","product_id":"42"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Mango", gjson.Get(body, "ingredient.ingredient_name").String())

	resp, _ = e.do(t, http.MethodPost, "/api/admin/ingredients/addingredient",
		`{"ingredient_id":"i1","ingredient_name":"Mango","product_id":"42"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/api/admin/ingredients/addingredient", `{"ingredient_id":"i2"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPut, "/api/admin/ingredients/updateingredient/i1", `{"ingredient_name":"Alphonso"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPut, "/api/admin/ingredients/updateingredient/i9", `{"ingredient_name":"Alphonso"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body = e.do(t, http.MethodGet, "/api/admin/ingredients/getingredients", "")

	var list struct {
		Ingredients []ingredients.Ingredient `json:"ingredients"`
	}

	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list.Ingredients, 1)
	assert.Equal(t, "Alphonso", list.Ingredients[0].IngredientName)

	resp, _ = e.do(t, http.MethodDelete, "/api/admin/ingredients/deleteingredient/i1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodDelete, "/api/admin/ingredients/deleteingredient/i1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_largeIngredientImage(t *testing.T) {
	srv := httptest.NewServer(server.New(server.Config{
		Ingredients: &fakeIngredients{items: map[string]ingredients.Ingredient{}},
	}))
	defer srv.Close()

	post := func(image string) int {
		b, err := json.Marshal(ingredients.Ingredient{
			IngredientID:    "i1",
			IngredientName:  "Mango",
			ProductID:       "42",
			IngredientImage: image,
		})
		require.NoError(t, err)

		resp, err := http.Post(srv.URL+"/api/admin/ingredients/addingredient", "application/json", bytes.NewReader(b))
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, post("data:image/png;base64,"+strings.Repeat("A", 20<<20)))
}

func TestServer_customers(t *testing.T) {
	e := newEnv(t, false)

	resp, body := e.do(t, http.MethodGet, "/api/admin/customer/count", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true,"count":2}`, body)

	resp, body = e.do(t, http.MethodGet, "/api/admin/customer/7/insights", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true,"customer":{"id":7,"name":"Asha Rao"},
		"insights":{"mostPurchasedProduct":{"title":"Mango Bar","quantity":3}}}`, body)

	resp, _ = e.do(t, http.MethodGet, "/api/admin/customer/8/insights", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = e.do(t, http.MethodGet, "/api/admin/customer/7/orders", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "7", gjson.Get(body, "customer_id").String())
	assert.Equal(t, int64(2), gjson.Get(body, "orders.#").Int())

	resp, body = e.do(t, http.MethodPut, "/api/admin/customer/update", `{"id":"gid://shopify/Customer/7","firstName":"Asha"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true,"customer":{"id":7,"first_name":"Asha"}}`, body)

	resp, _ = e.do(t, http.MethodPut, "/api/admin/customer/update", `{"id":"9"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = e.do(t, http.MethodPut, "/api/admin/customer/update", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid customer: customer ID is required", gjson.Get(body, "error").String())
}

func TestServer_adminProducts(t *testing.T) {
	e := newEnv(t, false)

	resp, body := e.do(t, http.MethodGet, "/api/admin/products", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true,"products":[]}`, body)

	resp, body = e.do(t, http.MethodGet, "/api/admin/products/mango-bar", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "mango-bar", gjson.Get(body, "product.handle").String())

	resp, _ = e.do(t, http.MethodGet, "/api/admin/test-connection", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_cors(t *testing.T) {
	e := newEnv(t, false)

	req, err := http.NewRequest(http.MethodOptions, e.srv.URL+"/api/shopify/products/quick", nil)
	require.NoError(t, err)

	req.Header.Set("Origin", "https://elinofoods.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Less(t, resp.StatusCode, 300)
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 0, e.up.requests, "preflight does not reach handlers")
}
