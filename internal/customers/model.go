package customers

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// LineItem is a purchased product of an order.
type LineItem struct {
	Title         string `json:"title"`
	Quantity      int64  `json:"quantity"`
	Price         string `json:"price"`
	TotalDiscount string `json:"total_discount"`
}

// Order is a simplified order.
type Order struct {
	ID                int64           `json:"id"`
	OrderNumber       int64           `json:"order_number"`
	Name              string          `json:"name"`
	TotalPrice        string          `json:"total_price"`
	Currency          string          `json:"currency"`
	FinancialStatus   *string         `json:"financial_status"`
	FulfillmentStatus *string         `json:"fulfillment_status"`
	CreatedAt         string          `json:"created_at"`
	ProcessedAt       string          `json:"processed_at"`
	LineItems         []LineItem      `json:"line_items"`
	CustomerLocale    *string         `json:"customer_locale"`
	BillingAddress    json.RawMessage `json:"billing_address"`
}

func nullableString(r gjson.Result) *string {
	if r.Type == gjson.Null {
		return nil
	}

	s := r.String()

	return &s
}

func order(o gjson.Result) Order {
	res := Order{
		ID:                o.Get("id").Int(),
		OrderNumber:       o.Get("order_number").Int(),
		Name:              o.Get("name").String(),
		TotalPrice:        o.Get("total_price").String(),
		Currency:          o.Get("currency").String(),
		FinancialStatus:   nullableString(o.Get("financial_status")),
		FulfillmentStatus: nullableString(o.Get("fulfillment_status")),
		CreatedAt:         o.Get("created_at").String(),
		ProcessedAt:       o.Get("processed_at").String(),
		LineItems:         []LineItem{},
		CustomerLocale:    nullableString(o.Get("customer_locale")),
		BillingAddress:    rawOrNull(o.Get("billing_address")),
	}

	o.Get("line_items").ForEach(func(_, item gjson.Result) bool {
		res.LineItems = append(res.LineItems, LineItem{
			Title:         item.Get("title").String(),
			Quantity:      item.Get("quantity").Int(),
			Price:         item.Get("price").String(),
			TotalDiscount: item.Get("total_discount").String(),
		})

		return true
	})

	return res
}

// Ref identifies a customer.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Purchase is a total quantity of a product bought by a customer.
type Purchase struct {
	Title    string `json:"title"`
	Quantity int64  `json:"quantity"`
}

// Insights describes purchase habits of a customer.
type Insights struct {
	Customer Ref
	// MostPurchased is nil when customer has no orders.
	MostPurchased *Purchase
}

// Address is a postal address of a customer.
type Address struct {
	// ID is a numeric or "gid://" address identifier.
	ID       string `json:"id"`
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city,omitempty"`
	Province string `json:"province,omitempty"`
	Zip      string `json:"zip,omitempty"`
	Country  string `json:"country,omitempty"`
}

type addressPatch struct {
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city,omitempty"`
	Province string `json:"province,omitempty"`
	Zip      string `json:"zip,omitempty"`
	Country  string `json:"country,omitempty"`
}

func (a Address) patch() addressPatch {
	return addressPatch{
		Address1: a.Address1,
		Address2: a.Address2,
		City:     a.City,
		Province: a.Province,
		Zip:      a.Zip,
		Country:  a.Country,
	}
}

// Update is a change of customer details, empty fields are left as is.
type Update struct {
	// ID is a numeric or "gid://" customer identifier.
	ID             string   `json:"id"`
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	Phone          string   `json:"phone"`
	DefaultAddress *Address `json:"defaultAddress"`
}

type customerPatch struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Updated holds upstream documents after update, Address is empty when not updated.
type Updated struct {
	Customer json.RawMessage
	Address  json.RawMessage
}
