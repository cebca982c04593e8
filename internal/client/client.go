// Package client is a typed Go client for the policy-keeper HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/policy-keeper/internal/api"
	"github.com/and161185/policy-keeper/internal/convert"
	"github.com/and161185/policy-keeper/internal/model"
	"github.com/and161185/policy-keeper/internal/query"
)

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Message string
	Details map[string]string
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("http %d: %s %v", e.Status, e.Message, e.Details)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }

// Client talks to one API base URL.
type Client struct {
	base *url.URL
	http *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithTimeout sets a per-request timeout on the default transport.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.http.Timeout = d } }

// New parses baseURL ("http://localhost:8080") and returns a client.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: 30 * time.Second}}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// do sends body as JSON and decodes a 2xx response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.Must(uuid.NewV4()).String())

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	ae := &APIError{Status: resp.StatusCode}
	var env api.ErrorResponse
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != "" {
		ae.Message, ae.Details = env.Error, env.Details
	} else {
		ae.Message = strings.TrimSpace(string(raw))
		if ae.Message == "" {
			ae.Message = http.StatusText(resp.StatusCode)
		}
	}
	return ae
}

func idPath(prefix string, id int64) string { return prefix + "/" + strconv.FormatInt(id, 10) }

// --- Clients ---

func (c *Client) ListClients(ctx context.Context, search string) ([]model.Client, error) {
	var q url.Values
	if s := strings.TrimSpace(search); s != "" {
		q = url.Values{"search": {s}}
	}
	var out []api.Client
	if err := c.do(ctx, http.MethodGet, "/clients", q, nil, &out); err != nil {
		return nil, err
	}
	cs := make([]model.Client, 0, len(out))
	for _, w := range out {
		cs = append(cs, convert.FromAPIClient(w))
	}
	return cs, nil
}

func (c *Client) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	var w api.Client
	if err := c.do(ctx, http.MethodGet, idPath("/clients", id), nil, nil, &w); err != nil {
		return nil, err
	}
	m := convert.FromAPIClient(w)
	return &m, nil
}

func (c *Client) CreateClient(ctx context.Context, req api.ClientRequest) (*model.Client, error) {
	var w api.Client
	if err := c.do(ctx, http.MethodPost, "/clients", nil, req, &w); err != nil {
		return nil, err
	}
	m := convert.FromAPIClient(w)
	return &m, nil
}

func (c *Client) UpdateClient(ctx context.Context, id int64, req api.ClientRequest) error {
	return c.do(ctx, http.MethodPut, idPath("/clients", id), nil, req, nil)
}

func (c *Client) DeleteClient(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/clients", id), nil, nil, nil)
}

// --- Policies ---

// PolicyQuery renders the list filter as query parameters.
func PolicyQuery(f query.Policies) url.Values {
	q := url.Values{}
	if f.Type != nil {
		q.Set("type", string(*f.Type))
	}
	if f.Status != nil {
		q.Set("status", string(*f.Status))
	}
	set := func(k string, t *time.Time) {
		if t != nil {
			q.Set(k, t.UTC().Format(time.RFC3339))
		}
	}
	set("startDateFrom", f.StartDateFrom)
	set("startDateTo", f.StartDateTo)
	set("endDateFrom", f.EndDateFrom)
	set("endDateTo", f.EndDateTo)
	return q
}

func (c *Client) ListPolicies(ctx context.Context, f query.Policies) ([]model.Policy, error) {
	var out []api.Policy
	if err := c.do(ctx, http.MethodGet, "/policies", PolicyQuery(f), nil, &out); err != nil {
		return nil, err
	}
	return fromAPIPolicies(out), nil
}

func (c *Client) GetPolicy(ctx context.Context, id int64) (*model.Policy, error) {
	var w api.Policy
	if err := c.do(ctx, http.MethodGet, idPath("/policies", id), nil, nil, &w); err != nil {
		return nil, err
	}
	p := convert.FromAPIPolicy(w)
	return &p, nil
}

func (c *Client) CreatePolicy(ctx context.Context, req api.PolicyRequest) (*model.Policy, error) {
	var w api.Policy
	if err := c.do(ctx, http.MethodPost, "/policies", nil, req, &w); err != nil {
		return nil, err
	}
	p := convert.FromAPIPolicy(w)
	return &p, nil
}

func (c *Client) UpdatePolicyStatus(ctx context.Context, id int64, req api.PolicyStatusRequest) error {
	return c.do(ctx, http.MethodPut, idPath("/policies", id)+"/status", nil, req, nil)
}

func (c *Client) DeletePolicy(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/policies", id), nil, nil, nil)
}

// --- Customer-scoped ---

func (c *Client) ListCustomerPolicies(ctx context.Context, clientID int64, status *model.PolicyStatus) ([]model.Policy, error) {
	var q url.Values
	if status != nil {
		q = url.Values{"status": {string(*status)}}
	}
	var out []api.Policy
	if err := c.do(ctx, http.MethodGet, idPath("/customers", clientID)+"/policies", q, nil, &out); err != nil {
		return nil, err
	}
	return fromAPIPolicies(out), nil
}

func (c *Client) CancelPolicy(ctx context.Context, clientID, policyID int64) error {
	path := idPath(idPath("/customers", clientID)+"/policies", policyID) + "/cancel"
	return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, clientID int64, req api.ProfileRequest) error {
	return c.do(ctx, http.MethodPut, idPath("/customers", clientID)+"/profile", nil, req, nil)
}

// Health calls /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}

func fromAPIPolicies(ws []api.Policy) []model.Policy {
	ps := make([]model.Policy, 0, len(ws))
	for _, w := range ws {
		ps = append(ps, convert.FromAPIPolicy(w))
	}
	return ps
}
