package arweave

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Sternrassler/arweave-whitelist/pkg/errs"
	"github.com/Sternrassler/arweave-whitelist/pkg/graphql"
	"github.com/Sternrassler/arweave-whitelist/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const opFetch = "fetch transactions page"

// Doer executes a GraphQL request. *graphql.Client implements it.
type Doer interface {
	Do(ctx context.Context, req graphql.Request) (*graphql.Response, error)
}

// Fetcher pages through transactions matching a Query.
type Fetcher struct {
	client Doer
	query  Query
	logger zerolog.Logger
}

// NewFetcher creates a fetcher for query. The query's own cursor is ignored;
// FetchPage supplies it per call.
func NewFetcher(client Doer, query Query) (*Fetcher, error) {
	if client == nil {
		return nil, fmt.Errorf("graphql client is required")
	}
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	return &Fetcher{
		client: client,
		query:  query.WithCursor(nil),
		logger: log.With().Str("component", "arweave-fetcher").Logger(),
	}, nil
}

// transactionsData mirrors the "data" member of a transactions response.
// Pointers distinguish absent members from zero values.
type transactionsData struct {
	Transactions *struct {
		Edges []struct {
			Cursor *string `json:"cursor"`
			Node   *struct {
				Owner *struct {
					Address *string `json:"address"`
				} `json:"owner"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"transactions"`
}

// FetchPage implements pagination.PageFetcher.
//
// The next cursor is the cursor of the last edge whenever the page has edges;
// an empty edge list, or a last edge with a missing or null cursor, ends
// pagination. A short page is not treated as the
// last one.
func (f *Fetcher) FetchPage(ctx context.Context, cursor *string) (pagination.Page, error) {
	q := f.query.WithCursor(cursor)

	resp, err := f.client.Do(ctx, q.Request())
	if err != nil {
		return pagination.Page{}, err
	}

	page, err := parsePage(resp.Data)
	if err != nil {
		f.logger.Warn().Err(err).Msg("Unusable transactions page")
		return pagination.Page{}, err
	}

	event := f.logger.Debug().
		Int("items", len(page.Items)).
		Bool("from_cache", resp.FromCache)
	if cursor != nil {
		event = event.Str("cursor", *cursor)
	}
	event.Msg("Fetched transactions page")

	return page, nil
}

// parsePage extracts owner addresses in edge order and the last edge's cursor.
func parsePage(data json.RawMessage) (pagination.Page, error) {
	if len(data) == 0 || string(data) == "null" {
		return pagination.Page{}, errs.Response(opFetch, "missing data", nil)
	}

	var d transactionsData
	if err := json.Unmarshal(data, &d); err != nil {
		return pagination.Page{}, errs.Response(opFetch, "", err)
	}
	if d.Transactions == nil {
		return pagination.Page{}, errs.Response(opFetch, "missing data.transactions", nil)
	}

	edges := d.Transactions.Edges
	page := pagination.Page{Items: make([]string, 0, len(edges))}
	for i, edge := range edges {
		if edge.Node == nil || edge.Node.Owner == nil || edge.Node.Owner.Address == nil {
			return pagination.Page{}, errs.Response(opFetch, fmt.Sprintf("edge %d missing node.owner.address", i), nil)
		}
		page.Items = append(page.Items, *edge.Node.Owner.Address)
	}

	// A last edge without a cursor ends pagination like an empty page.
	if len(edges) > 0 {
		page.NextCursor = edges[len(edges)-1].Cursor
	}

	return page, nil
}
