package graphql

import (
	"encoding/json"
)

// Request is the JSON body of a GraphQL POST.
type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// Response is a decoded GraphQL response envelope.
// Data is left raw so callers can decode into their own shapes.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors,omitempty"`

	// FromCache is true when the body came from the response cache.
	FromCache bool `json:"-"`
}

// HasErrors reports whether the body carried an "errors" member at all.
// A present-but-null member counts.
func (r *Response) HasErrors() bool {
	return len(r.Errors) > 0
}
