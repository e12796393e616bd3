// Package catalog reads and reshapes products of the upstream catalog.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bool64/ctxd"
	"github.com/elinofoods/storefront/cache"
	"github.com/elinofoods/storefront/internal/shopify"
	"github.com/elinofoods/storefront/warm"
	"github.com/tidwall/gjson"
)

// Hot list and detail cache settings.
//
// Request handlers and the warmer must use the same key and ttl, otherwise
// they keep overwriting each other with inconsistent expiration.
const (
	QuickListKey  = "products:quick:v1"
	QuickListTTL  = 300 * time.Second
	QuickListSize = 250

	DetailTTL = 600 * time.Second
)

// ErrNotFound indicates missing product.
var ErrNotFound = errors.New("product not found")

// ErrInvalidArgument indicates bad request parameters.
var ErrInvalidArgument = errors.New("invalid argument")

var numericID = regexp.MustCompile(`^\d+$`)

// ProductIDKey is a cache key of product detail by numeric id.
func ProductIDKey(id string) string {
	return "product:id:" + id
}

// ProductHandleKey is a cache key of product detail by handle.
func ProductHandleKey(handle string) string {
	return "product:handle:" + handle
}

// Catalog serves product reads, caching hot paths.
type Catalog struct {
	upstream shopify.Requester
	cache    *cache.ReadThrough
	log      ctxd.Logger
}

// New creates Catalog.
func New(upstream shopify.Requester, rt *cache.ReadThrough, logger ctxd.Logger) *Catalog {
	if logger == nil {
		logger = ctxd.NoOpLogger{}
	}

	return &Catalog{
		upstream: upstream,
		cache:    rt,
		log:      logger,
	}
}

// FetchQuickList queries best selling products bypassing cache.
func (c *Catalog) FetchQuickList(ctx context.Context) ([]QuickProduct, error) {
	data, err := c.upstream.Request(ctx, quickListQuery, map[string]interface{}{
		"first": QuickListSize,
	})
	if err != nil {
		return nil, ctxd.WrapError(ctx, err, "failed to fetch quick list")
	}

	edges := data.Get("products.edges")
	if !edges.IsArray() {
		return nil, errors.New("unexpected quick list response")
	}

	products := make([]QuickProduct, 0, len(edges.Array()))

	edges.ForEach(func(_, edge gjson.Result) bool {
		products = append(products, quickProduct(edge.Get("node")))

		return true
	})

	return products, nil
}

// QuickList returns cached best selling products, hit is true when served from cache.
func (c *Catalog) QuickList(ctx context.Context) (products []QuickProduct, hit bool, err error) {
	v, hit, err := c.cache.Get(ctx, QuickListKey, QuickListTTL, func(ctx context.Context) (interface{}, error) {
		return c.FetchQuickList(ctx)
	})
	if err != nil {
		return nil, false, err
	}

	products, ok := v.([]QuickProduct)
	if !ok {
		return nil, false, fmt.Errorf("unexpected cached value %T", v)
	}

	return products, hit, nil
}

// QuickListJob populates quick list cache in background.
func (c *Catalog) QuickListJob() warm.Job {
	return warm.Job{
		Name: "quick_list",
		Key:  QuickListKey,
		TTL:  QuickListTTL,
		Build: func(ctx context.Context) (interface{}, error) {
			return c.FetchQuickList(ctx)
		},
	}
}

// ProductByID returns cached product detail by numeric id.
func (c *Catalog) ProductByID(ctx context.Context, id string) (json.RawMessage, bool, error) {
	if !numericID.MatchString(id) {
		return nil, false, fmt.Errorf("%w: product id must be numeric", ErrInvalidArgument)
	}

	return c.detail(ctx, ProductIDKey(id), productByIDQuery, "product", map[string]interface{}{
		"id": "gid://shopify/Product/" + id,
	})
}

// ProductByHandle returns cached product detail by handle.
func (c *Catalog) ProductByHandle(ctx context.Context, handle string) (json.RawMessage, bool, error) {
	if handle == "" {
		return nil, false, fmt.Errorf("%w: empty handle", ErrInvalidArgument)
	}

	return c.detail(ctx, ProductHandleKey(handle), productByHandleQuery, "productByHandle", map[string]interface{}{
		"handle": handle,
	})
}

// Product returns product detail by numeric id or by handle.
func (c *Catalog) Product(ctx context.Context, identifier string) (json.RawMessage, bool, error) {
	if numericID.MatchString(identifier) {
		return c.ProductByID(ctx, identifier)
	}

	return c.ProductByHandle(ctx, identifier)
}

func (c *Catalog) detail(
	ctx context.Context,
	key, query, member string,
	variables map[string]interface{},
) (json.RawMessage, bool, error) {
	v, hit, err := c.cache.Get(ctx, key, DetailTTL, func(ctx context.Context) (interface{}, error) {
		data, err := c.upstream.Request(ctx, query, variables)
		if err != nil {
			return nil, err
		}

		product := data.Get(member)
		if !product.IsObject() {
			return nil, ErrNotFound
		}

		return json.RawMessage(product.Raw), nil
	})
	if err != nil {
		return nil, false, err
	}

	product, ok := v.(json.RawMessage)
	if !ok {
		return nil, false, fmt.Errorf("unexpected cached value %T", v)
	}

	return product, hit, nil
}

// Search finds products by relevance.
func (c *Catalog) Search(ctx context.Context, q string, limit int) ([]SearchProduct, error) {
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("%w: search query 'q' is required", ErrInvalidArgument)
	}

	if limit <= 0 {
		limit = 10
	}

	data, err := c.upstream.Request(ctx, searchQuery, map[string]interface{}{
		"query": q,
		"first": limit,
	})
	if err != nil {
		return nil, ctxd.WrapError(ctx, err, "failed to search products", "q", q)
	}

	products := make([]SearchProduct, 0, limit)

	data.Get("products.edges").ForEach(func(_, edge gjson.Result) bool {
		products = append(products, searchProduct(edge.Get("node")))

		return true
	})

	c.log.Debug(ctx, "search returned products", "q", q, "count", len(products))

	return products, nil
}

// ListParams controls List.
type ListParams struct {
	Limit    int
	SortKey  string
	Reverse  bool
	Category string
}

var categories = map[string]string{
	"bar-blast":   "Bar Blast",
	"fruit-jerky": "Fruit Jerky",
}

// List returns product edges optionally filtered by category slug.
func (c *Catalog) List(ctx context.Context, p ListParams) (json.RawMessage, error) {
	if p.Limit <= 0 {
		p.Limit = 20
	}

	if p.SortKey == "" {
		p.SortKey = "UPDATED_AT"
	}

	query := listQuery
	variables := map[string]interface{}{
		"first":   p.Limit,
		"sortKey": p.SortKey,
		"reverse": p.Reverse,
	}

	if p.Category != "" {
		name, ok := categories[p.Category]
		if !ok {
			name = p.Category
		}

		query = listByCategoryQuery
		variables["query"] = fmt.Sprintf(`product_type:%q OR tag:%q`, name, name)
	}

	data, err := c.upstream.Request(ctx, query, variables)
	if err != nil {
		return nil, ctxd.WrapError(ctx, err, "failed to list products", "category", p.Category)
	}

	edges := data.Get("products.edges")
	if !edges.IsArray() {
		return json.RawMessage("[]"), nil
	}

	return json.RawMessage(edges.Raw), nil
}

// Shop returns shop name and primary domain, it is used to check upstream connection.
func (c *Catalog) Shop(ctx context.Context) (json.RawMessage, error) {
	data, err := c.upstream.Request(ctx, shopQuery, nil)
	if err != nil {
		return nil, err
	}

	return json.RawMessage(data.Get("shop").Raw), nil
}

// MaxBatch limits number of identifiers of Batch.
const MaxBatch = 50

// Batch returns products by ids or by handles in a single upstream query,
// missing products are skipped.
func (c *Catalog) Batch(ctx context.Context, identifiers []string, byHandle bool) ([]json.RawMessage, error) {
	if len(identifiers) == 0 {
		return nil, fmt.Errorf("%w: identifiers array is required", ErrInvalidArgument)
	}

	if len(identifiers) > MaxBatch {
		return nil, fmt.Errorf("%w: at most %d identifiers allowed", ErrInvalidArgument, MaxBatch)
	}

	var (
		params    = make([]string, 0, len(identifiers))
		fields    = make([]string, 0, len(identifiers))
		variables = make(map[string]interface{}, len(identifiers))
	)

	for i, id := range identifiers {
		alias := "p" + strconv.Itoa(i)

		if byHandle {
			params = append(params, "$"+alias+": String!")
			fields = append(fields, alias+": productByHandle(handle: $"+alias+") {"+batchFields+"\n  }")
			variables[alias] = id
		} else {
			if !strings.HasPrefix(id, "gid://") {
				id = "gid://shopify/Product/" + id
			}

			params = append(params, "$"+alias+": ID!")
			fields = append(fields, alias+": product(id: $"+alias+") {"+batchFields+"\n  }")
			variables[alias] = id
		}
	}

	query := "query batch(" + strings.Join(params, ", ") + ") {\n  " + strings.Join(fields, "\n  ") + "\n}"

	data, err := c.upstream.Request(ctx, query, variables)
	if err != nil {
		return nil, ctxd.WrapError(ctx, err, "failed to batch fetch products", "count", len(identifiers))
	}

	products := make([]json.RawMessage, 0, len(identifiers))

	for i := range identifiers {
		if p := data.Get("p" + strconv.Itoa(i)); p.IsObject() {
			products = append(products, json.RawMessage(p.Raw))
		}
	}

	return products, nil
}

// AdminList returns uncached product nodes with variants for back office.
func (c *Catalog) AdminList(ctx context.Context, limit int, reverse bool) ([]json.RawMessage, error) {
	if limit <= 0 {
		limit = 20
	}

	data, err := c.upstream.Request(ctx, adminListQuery, map[string]interface{}{
		"first":   limit,
		"reverse": reverse,
	})
	if err != nil {
		return nil, ctxd.WrapError(ctx, err, "failed to fetch admin products")
	}

	nodes := make([]json.RawMessage, 0, limit)

	data.Get("products.edges").ForEach(func(_, edge gjson.Result) bool {
		nodes = append(nodes, json.RawMessage(edge.Get("node").Raw))

		return true
	})

	return nodes, nil
}

// AdminProduct returns uncached product with variant SKUs by handle.
func (c *Catalog) AdminProduct(ctx context.Context, handle string) (json.RawMessage, error) {
	if handle == "" {
		return nil, fmt.Errorf("%w: empty handle", ErrInvalidArgument)
	}

	data, err := c.upstream.Request(ctx, adminProductQuery, map[string]interface{}{"handle": handle})
	if err != nil {
		return nil, ctxd.WrapError(ctx, err, "failed to fetch admin product", "handle", handle)
	}

	p := data.Get("productByHandle")
	if !p.IsObject() {
		return nil, ErrNotFound
	}

	return json.RawMessage(p.Raw), nil
}
