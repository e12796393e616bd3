package shopify

import (
	"fmt"
	"net/http"
	"strings"
)

// Error is returned for non-2xx upstream responses. It contains an HTTP
// status code so that callers can relay it.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	text := http.StatusText(e.Status)
	if e.Body == "" {
		return fmt.Sprintf("upstream responded %d %s", e.Status, text)
	}

	return fmt.Sprintf("upstream responded %d %s: %s", e.Status, text, e.Body)
}

func fromResponse(status int, body []byte) error {
	text := strings.TrimSpace(string(body))

	// Upstream error pages can be large, message is enough for logs.
	if len(text) > 512 {
		text = text[:512]
	}

	return &Error{Status: status, Body: text}
}

// GraphQLError lists messages of a GraphQL "errors" response member.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}
