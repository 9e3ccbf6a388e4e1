package rest

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/quijoterun/tracker/internal/backend"
)

const returnRepresentation = "return=representation"

func tablePath(table string) string {
	return "/rest/v1/" + url.PathEscape(table)
}

// encodeQuery renders q in the table API's query string dialect:
// col=eq.value for filters and order=a.asc,b.desc for ordering.
func encodeQuery(q backend.Query, withSelect bool) url.Values {
	values := url.Values{}
	if withSelect {
		values.Set("select", "*")
	}
	for _, f := range q.Filters {
		values.Add(f.Column, "eq."+f.Value)
	}
	if len(q.Orders) > 0 {
		parts := make([]string, 0, len(q.Orders))
		for _, o := range q.Orders {
			dir := "asc"
			if o.Descending {
				dir = "desc"
			}
			parts = append(parts, o.Column+"."+dir)
		}
		values.Set("order", strings.Join(parts, ","))
	}
	return values
}

func bearerFrom(ctx context.Context) string {
	token, _ := backend.AccessTokenFromContext(ctx)
	return token
}

// Select reads rows matching q into dest
func (c *Client) Select(ctx context.Context, table string, q backend.Query, dest any) error {
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   tablePath(table),
		query:  encodeQuery(q, true),
		bearer: bearerFrom(ctx),
	}, dest)
}

// Insert creates row and reads the stored rows into dest
func (c *Client) Insert(ctx context.Context, table string, row any, dest any) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   tablePath(table),
		query:  url.Values{"select": {"*"}},
		body:   row,
		bearer: bearerFrom(ctx),
		prefer: returnRepresentation,
	}, dest)
}

// Update applies patch to the rows matching q and reads them into dest
func (c *Client) Update(ctx context.Context, table string, q backend.Query, patch any, dest any) error {
	if q.Unfiltered() {
		return backend.ErrUnsafeQuery
	}
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   tablePath(table),
		query:  encodeQuery(q, true),
		body:   patch,
		bearer: bearerFrom(ctx),
		prefer: returnRepresentation,
	}, dest)
}

// Delete removes the rows matching q
func (c *Client) Delete(ctx context.Context, table string, q backend.Query) error {
	if q.Unfiltered() {
		return backend.ErrUnsafeQuery
	}
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   tablePath(table),
		query:  encodeQuery(q, false),
		bearer: bearerFrom(ctx),
	}, nil)
}
