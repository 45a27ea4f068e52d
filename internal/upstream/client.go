package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DataSource is the contract the intelligence layer depends on. The HTTP
// client below is the production implementation; tests substitute in-memory
// fakes.
type DataSource interface {
	Projects(ctx context.Context) ([]Project, error)
	ProjectModule(ctx context.Context, module string, projectID int64) (Payload, error)
	FinanceSubmodule(ctx context.Context, submodule string, projectID int64) (Payload, error)
	FieldMetadata(ctx context.Context, table string) ([]FieldMeta, error)
	DataPoints(ctx context.Context, module string) ([]FieldMeta, error)
	DropdownOptions(ctx context.Context, table, field string) ([]DropdownOption, error)
	UpdateProjectData(ctx context.Context, table string, projectID int64, record map[string]any) error
	UpdateFinanceSubmodule(ctx context.Context, submodule string, projectID int64, save SubmoduleSave) error
}

// Client wraps interactions with the upstream data API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a new client. No retry policy is applied here: the
// upstream layer owns retries and timeouts beyond the plain request timeout.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Projects fetches the portfolio project list.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.get(ctx, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ProjectModule fetches module-shaped data for one (module, project) pair.
func (c *Client) ProjectModule(ctx context.Context, module string, projectID int64) (Payload, error) {
	var payload Payload
	path := fmt.Sprintf("/api/projects/%d/modules/%s", projectID, url.PathEscape(module))
	if err := c.get(ctx, path, nil, &payload); err != nil {
		return Payload{}, err
	}
	return payload, nil
}

// FinanceSubmodule fetches one finance submodule for a project, including the
// metadata sidecar where the submodule provides one.
func (c *Client) FinanceSubmodule(ctx context.Context, submodule string, projectID int64) (Payload, error) {
	var payload Payload
	path := fmt.Sprintf("/api/finance/%s/%d", url.PathEscape(submodule), projectID)
	if err := c.get(ctx, path, nil, &payload); err != nil {
		return Payload{}, err
	}
	return payload, nil
}

// FieldMetadata fetches field descriptors for a table.
func (c *Client) FieldMetadata(ctx context.Context, table string) ([]FieldMeta, error) {
	var fields []FieldMeta
	if err := c.get(ctx, "/api/metadata/fields", url.Values{"table": {table}}, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// DataPoints fetches the datapoint catalog for a module.
func (c *Client) DataPoints(ctx context.Context, module string) ([]FieldMeta, error) {
	var fields []FieldMeta
	if err := c.get(ctx, "/api/metadata/datapoints", url.Values{"module": {module}}, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// DropdownOptions fetches the selectable values for a dropdown field.
func (c *Client) DropdownOptions(ctx context.Context, table, field string) ([]DropdownOption, error) {
	var options []DropdownOption
	query := url.Values{"table": {table}, "field": {field}}
	if err := c.get(ctx, "/api/metadata/options", query, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// UpdateProjectData persists changed fields of one table-backed record.
func (c *Client) UpdateProjectData(ctx context.Context, table string, projectID int64, record map[string]any) error {
	path := fmt.Sprintf("/api/projects/%d/tables/%s", projectID, url.PathEscape(table))
	return c.send(ctx, http.MethodPut, path, record, nil)
}

// UpdateFinanceSubmodule persists one save group for a finance submodule.
func (c *Client) UpdateFinanceSubmodule(ctx context.Context, submodule string, projectID int64, save SubmoduleSave) error {
	path := fmt.Sprintf("/api/finance/%s/%d", url.PathEscape(submodule), projectID)
	return c.send(ctx, http.MethodPut, path, save, nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("upstream: %s %s returned %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
