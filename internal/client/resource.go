package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Resource is a plain paginated CRUD endpoint (collaterals, clientes and their
// catalogs) exchanged as raw JSON.
type Resource struct {
	client *Client
	path   string
}

// Resource returns a handle for the collection at path, e.g. "/collaterals".
func (c *Client) Resource(path string) *Resource {
	return &Resource{client: c, path: "/" + strings.Trim(path, "/")}
}

// Child addresses a nested collection such as /clientes/{id}/referencias.
func (r *Resource) Child(id int64, name string) *Resource {
	return r.client.Resource(r.item(id) + "/" + strings.Trim(name, "/"))
}

func (r *Resource) item(id int64) string {
	return r.path + "/" + strconv.FormatInt(id, 10)
}

func (r *Resource) List(ctx context.Context, query url.Values) (json.RawMessage, error) {
	var out json.RawMessage
	err := r.client.do(ctx, request{method: http.MethodGet, path: r.path, action: ActionResourceList, query: query}, &out)
	return out, err
}

func (r *Resource) Get(ctx context.Context, id int64) (json.RawMessage, error) {
	var out json.RawMessage
	err := r.client.do(ctx, request{method: http.MethodGet, path: r.item(id), action: ActionResourceGet}, &out)
	return out, err
}

func (r *Resource) Create(ctx context.Context, body any) (json.RawMessage, error) {
	var out json.RawMessage
	err := r.client.do(ctx, request{method: http.MethodPost, path: r.path, action: ActionResourceCreate, body: body}, &out)
	return out, err
}

func (r *Resource) Update(ctx context.Context, id int64, body any) (json.RawMessage, error) {
	var out json.RawMessage
	err := r.client.do(ctx, request{method: http.MethodPut, path: r.item(id), action: ActionResourceUpdate, body: body}, &out)
	return out, err
}
