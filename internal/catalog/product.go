package catalog

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// QuickProduct is a lightweight listing item.
type QuickProduct struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Handle    string  `json:"handle"`
	Price     float64 `json:"price"`
	Image     *string `json:"image"`
	Available bool    `json:"available"`
}

// SearchProduct is a search result item.
type SearchProduct struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Handle           string          `json:"handle"`
	Price            json.RawMessage `json:"price"`
	Image            json.RawMessage `json:"image"`
	AvailableForSale bool            `json:"availableForSale"`
}

// LegacyID returns trailing segment of a global id, "gid://shopify/Product/42" becomes "42".
func LegacyID(gid string) string {
	if i := strings.LastIndexByte(gid, '/'); i >= 0 {
		return gid[i+1:]
	}

	return gid
}

func quickProduct(node gjson.Result) QuickProduct {
	p := QuickProduct{
		ID:        LegacyID(node.Get("id").String()),
		Title:     node.Get("title").String(),
		Handle:    node.Get("handle").String(),
		Price:     node.Get("priceRange.minVariantPrice.amount").Float(),
		Available: node.Get("availableForSale").Bool(),
	}

	if u := node.Get("featuredImage.url"); u.Exists() && u.String() != "" {
		s := u.String()
		p.Image = &s
	}

	return p
}

func searchProduct(node gjson.Result) SearchProduct {
	return SearchProduct{
		ID:               node.Get("id").String(),
		Title:            node.Get("title").String(),
		Handle:           node.Get("handle").String(),
		Price:            rawOrNull(node.Get("priceRange.minVariantPrice")),
		Image:            rawOrNull(node.Get("images.edges.0.node")),
		AvailableForSale: node.Get("availableForSale").Bool(),
	}
}

func rawOrNull(r gjson.Result) json.RawMessage {
	if !r.Exists() || r.Raw == "" {
		return json.RawMessage("null")
	}

	return json.RawMessage(r.Raw)
}
