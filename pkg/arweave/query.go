// Package arweave queries the Arweave gateway for transactions matching a
// fixed recipient and tag filter and exposes the result as pages of owner
// addresses.
package arweave

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Sternrassler/arweave-whitelist/pkg/graphql"
)

const (
	// WhitelistRecipient is the process that receives the tracked action.
	WhitelistRecipient = "Q-m1C__tJObZCydD_fTcds6np6gHRDDP05PfkCSSLGI"

	// WhitelistAction is the value of the "Action" tag that qualifies a wallet.
	WhitelistAction = "User.GoToTown"

	// DefaultPageSize is the number of edges requested per page.
	DefaultPageSize = 100

	// MaxPageSize is the largest page the gateway serves.
	MaxPageSize = 100
)

// Tag is a tag filter: the transaction must carry Name with one of Values.
type Tag struct {
	Name   string
	Values []string
}

// Query describes one transactions request. It is a value type; WithCursor
// returns a new Query and leaves the receiver untouched.
type Query struct {
	Recipients []string
	Tags       []Tag
	First      int
	After      *string
}

// WhitelistQuery returns the query for wallets that sent the whitelist action.
func WhitelistQuery() Query {
	return Query{
		Recipients: []string{WhitelistRecipient},
		Tags: []Tag{
			{Name: "Action", Values: []string{WhitelistAction}},
		},
		First: DefaultPageSize,
	}
}

// Validate checks that the query can be sent.
func (q Query) Validate() error {
	if q.First < 1 || q.First > MaxPageSize {
		return fmt.Errorf("page size must be between 1 and %d (got %d)", MaxPageSize, q.First)
	}
	for i, tag := range q.Tags {
		if tag.Name == "" {
			return fmt.Errorf("tag %d has no name", i)
		}
		if len(tag.Values) == 0 {
			return fmt.Errorf("tag %q has no values", tag.Name)
		}
	}
	return nil
}

// WithCursor returns a copy of q continuing after cursor.
func (q Query) WithCursor(cursor *string) Query {
	next := q
	if cursor != nil {
		c := *cursor
		next.After = &c
	} else {
		next.After = nil
	}
	return next
}

// Document renders the GraphQL document. The page size is substituted into
// the text; the cursor travels as the $after variable.
func (q Query) Document() string {
	var b strings.Builder

	b.WriteString("query ($after: String) {\n")
	b.WriteString("  transactions(\n")
	if len(q.Recipients) > 0 {
		b.WriteString("    recipients: ")
		b.WriteString(stringList(q.Recipients))
		b.WriteString("\n")
	}
	if len(q.Tags) > 0 {
		b.WriteString("    tags: [\n")
		for _, tag := range q.Tags {
			fmt.Fprintf(&b, "      { name: %s, values: %s }\n", quote(tag.Name), stringList(tag.Values))
		}
		b.WriteString("    ]\n")
	}
	b.WriteString("    first: ")
	b.WriteString(strconv.Itoa(q.First))
	b.WriteString("\n")
	b.WriteString("    after: $after\n")
	b.WriteString("  ) {\n")
	b.WriteString("    edges {\n")
	b.WriteString("      cursor\n")
	b.WriteString("      node {\n")
	b.WriteString("        owner {\n")
	b.WriteString("          address\n")
	b.WriteString("        }\n")
	b.WriteString("      }\n")
	b.WriteString("    }\n")
	b.WriteString("  }\n")
	b.WriteString("}\n")

	return b.String()
}

// Request builds the POST body for q. A nil cursor is sent as JSON null.
func (q Query) Request() graphql.Request {
	var after any
	if q.After != nil {
		after = *q.After
	}
	return graphql.Request{
		Query:     q.Document(),
		Variables: map[string]any{"after": after},
	}
}

// quote renders s as a GraphQL string literal. GraphQL string escapes are a
// subset of JSON's, so JSON encoding is safe here.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func stringList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quote(v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
