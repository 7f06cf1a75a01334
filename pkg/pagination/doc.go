// Package pagination drives cursor-based pagination over a GraphQL-style
// connection until the endpoint signals that no further pages exist.
//
// A PageFetcher returns one page of items together with the cursor of the
// page's last edge. The Paginator starts with a nil cursor, appends every
// page's items to the ResultSet in arrival order (no reordering, no dedup),
// and carries the cursor forward. It stops when:
//   - a page comes back with a nil NextCursor (empty edge list)
//   - the fetcher fails (the ResultSet keeps what earlier pages delivered)
//   - an optional MaxPages or MaxItems bound is reached
//   - the context is cancelled
//
// Requests are strictly sequential; a fixed delay (default 1s) separates
// consecutive fetches. Failed fetches are never retried.
//
// Example usage:
//
//	p := pagination.NewPaginator(fetcher, pagination.DefaultConfig())
//	rs, err := p.Collect(ctx)
//	if err != nil {
//		// rs.Items still holds everything fetched before the failure
//	}
package pagination
