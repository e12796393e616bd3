// Package customers reads and updates customers of the upstream shop.
package customers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bool64/ctxd"
	"github.com/elinofoods/storefront/internal/shopify"
	"github.com/tidwall/gjson"
)

// Errors.
var (
	ErrNotFound = errors.New("customer not found")
	ErrInvalid  = errors.New("invalid customer")
)

// Upstream reads and updates Admin REST resources.
type Upstream interface {
	shopify.Getter
	shopify.Putter
}

// Service implements customer use cases.
type Service struct {
	upstream Upstream
	log      ctxd.Logger
}

// NewService creates Service.
func NewService(upstream Upstream, logger ctxd.Logger) *Service {
	if logger == nil {
		logger = ctxd.NoOpLogger{}
	}

	return &Service{upstream: upstream, log: logger}
}

// NumericID returns trailing segment of an opaque "gid://shopify/Customer/42" identifier,
// query part is dropped, plain ids are returned as is.
func NumericID(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}

	if i := strings.Index(id, "?"); i >= 0 {
		id = id[:i]
	}

	return id
}

func customerID(id string) (string, error) {
	id = NumericID(strings.TrimSpace(id))
	if id == "" {
		return "", fmt.Errorf("%w: customer ID is required", ErrInvalid)
	}

	for _, r := range id {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: customer ID must be numeric", ErrInvalid)
		}
	}

	return id, nil
}

// Count returns total number of customers.
func (s *Service) Count(ctx context.Context) (int64, error) {
	res, err := s.upstream.Get(ctx, "customers/count.json", nil)
	if err != nil {
		return 0, ctxd.WrapError(ctx, err, "failed to fetch customer count")
	}

	return res.Get("count").Int(), nil
}

// List returns total number of customers and the first page of customer documents.
func (s *Service) List(ctx context.Context) (int64, json.RawMessage, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return 0, nil, err
	}

	res, err := s.upstream.Get(ctx, "customers.json", url.Values{"limit": []string{"250"}})
	if err != nil {
		return 0, nil, ctxd.WrapError(ctx, err, "failed to fetch customers")
	}

	list := res.Get("customers")
	if !list.IsArray() {
		return count, json.RawMessage("[]"), nil
	}

	return count, json.RawMessage(list.Raw), nil
}

func (s *Service) orders(ctx context.Context, id string) (gjson.Result, error) {
	res, err := s.upstream.Get(ctx, "orders.json", url.Values{
		"customer_id": []string{id},
		"status":      []string{"any"},
		"limit":       []string{"250"},
	})
	if err != nil {
		return gjson.Result{}, ctxd.WrapError(ctx, err, "failed to fetch customer orders", "customer_id", id)
	}

	return res.Get("orders"), nil
}

// Orders returns simplified orders of a customer.
func (s *Service) Orders(ctx context.Context, customer string) ([]Order, error) {
	id, err := customerID(customer)
	if err != nil {
		return nil, err
	}

	list, err := s.orders(ctx, id)
	if err != nil {
		return nil, err
	}

	res := make([]Order, 0, len(list.Array()))

	list.ForEach(func(_, o gjson.Result) bool {
		res = append(res, order(o))

		return true
	})

	return res, nil
}

// Insights aggregates purchases of a customer.
func (s *Service) Insights(ctx context.Context, customer string) (Insights, error) {
	id, err := customerID(customer)
	if err != nil {
		return Insights{}, err
	}

	res, err := s.upstream.Get(ctx, "customers/"+id+".json", nil)
	if err != nil {
		var se *shopify.Error
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return Insights{}, ErrNotFound
		}

		return Insights{}, ctxd.WrapError(ctx, err, "failed to fetch customer", "customer_id", id)
	}

	c := res.Get("customer")
	if !c.IsObject() {
		return Insights{}, ErrNotFound
	}

	list, err := s.orders(ctx, id)
	if err != nil {
		return Insights{}, err
	}

	return Insights{
		Customer: Ref{
			ID:   c.Get("id").Int(),
			Name: c.Get("first_name").String() + " " + c.Get("last_name").String(),
		},
		MostPurchased: mostPurchased(list),
	}, nil
}

// mostPurchased sums line item quantities by title, the earliest seen title wins a tie.
func mostPurchased(orders gjson.Result) *Purchase {
	var (
		titles []string
		qty    = map[string]int64{}
	)

	orders.ForEach(func(_, o gjson.Result) bool {
		o.Get("line_items").ForEach(func(_, item gjson.Result) bool {
			title := item.Get("title").String()

			if _, ok := qty[title]; !ok {
				titles = append(titles, title)
			}

			qty[title] += item.Get("quantity").Int()

			return true
		})

		return true
	})

	var top *Purchase

	for _, t := range titles {
		if top == nil || qty[t] > top.Quantity {
			top = &Purchase{Title: t, Quantity: qty[t]}
		}
	}

	return top
}

// Update changes customer name and phone and optionally its default address.
func (s *Service) Update(ctx context.Context, u Update) (Updated, error) {
	id, err := customerID(u.ID)
	if err != nil {
		return Updated{}, err
	}

	res, err := s.upstream.Put(ctx, "customers/"+id+".json", map[string]interface{}{
		"customer": customerPatch{
			ID:        id,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Phone:     u.Phone,
		},
	})
	if err != nil {
		return Updated{}, ctxd.WrapError(ctx, err, "failed to update customer", "customer_id", id)
	}

	upd := Updated{Customer: rawOrNull(res.Get("customer"))}

	if u.DefaultAddress == nil || u.DefaultAddress.ID == "" {
		return upd, nil
	}

	addressID := NumericID(u.DefaultAddress.ID)
	path := "customers/" + id + "/addresses/" + addressID

	res, err = s.upstream.Put(ctx, path+".json", map[string]interface{}{
		"address": u.DefaultAddress.patch(),
	})
	if err != nil {
		return Updated{}, ctxd.WrapError(ctx, err, "failed to update customer address",
			"customer_id", id, "address_id", addressID)
	}

	upd.Address = rawOrNull(res.Get("customer_address"))

	if _, err := s.upstream.Put(ctx, path+"/default.json", nil); err != nil {
		s.log.Warn(ctx, "failed to make address default",
			"customer_id", id, "address_id", addressID, "error", err)
	}

	return upd, nil
}

func rawOrNull(r gjson.Result) json.RawMessage {
	if !r.Exists() {
		return json.RawMessage("null")
	}

	return json.RawMessage(r.Raw)
}
