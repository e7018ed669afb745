package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/portal/backend/internal/infrastructure/config"
)

// Errors returned by the ERP client
var (
	ErrNotFound      = errors.New("erp: document not found")
	ErrUnauthorized  = errors.New("erp: authentication rejected")
	ErrUnavailable   = errors.New("erp: upstream unavailable")
	ErrResponseLarge = errors.New("erp: response exceeds size limit")
)

// Client is the read/write surface the portal needs from the ERP. The HTTP
// implementation talks to a Frappe-style REST API; the mock implementation
// serves seeded data for development.
type Client interface {
	// Ping verifies upstream reachability
	Ping(ctx context.Context) error

	// ProbeDoctype reports whether a doctype is reachable upstream
	ProbeDoctype(ctx context.Context, doctype string) (bool, error)

	ListProjects(ctx context.Context, customerID string) ([]Project, error)
	GetProject(ctx context.Context, name string) (*Project, error)

	ListRequests(ctx context.Context, projectID string) ([]ClientRequest, error)
	GetRequest(ctx context.Context, name string) (*ClientRequest, error)
	CreateRequest(ctx context.Context, req ClientRequest) (*ClientRequest, error)
	UpdateRequest(ctx context.Context, name string, fields map[string]any) (*ClientRequest, error)

	ListInvoices(ctx context.Context, customerID, projectID string) ([]SalesInvoice, error)
	GetInvoice(ctx context.Context, name string) (*SalesInvoice, error)

	ListContracts(ctx context.Context, customerID, projectID string) ([]Contract, error)
	GetContract(ctx context.Context, name string) (*Contract, error)
	SignContract(ctx context.Context, name, signedBy string) (*Contract, error)

	ListDeliverables(ctx context.Context, projectID string) ([]Deliverable, error)
	GetDeliverable(ctx context.Context, name string) (*Deliverable, error)

	ListFiles(ctx context.Context, doctype, docname string) ([]File, error)
	UploadFile(ctx context.Context, input UploadInput) (*File, error)
	DownloadFile(ctx context.Context, fileURL string) ([]byte, string, error)
}

// HTTPClient implements Client against a Frappe-style REST API:
// documents live under /api/resource/{doctype}, RPC methods under
// /api/method/{name}, and auth is a "token key:secret" header.
type HTTPClient struct {
	baseURL         string
	apiKey          string
	apiSecret       string
	maxResponseSize int64
	httpClient      *http.Client
}

// NewHTTPClient creates an ERP client from configuration
func NewHTTPClient(cfg config.ERPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("erp: base URL is required")
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("erp: api key and secret are required")
	}

	return &HTTPClient{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:          cfg.APIKey,
		apiSecret:       cfg.APISecret,
		maxResponseSize: cfg.MaxResponseSize,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// filter is one Frappe list filter: [field, operator, value]
type filter struct {
	Field    string
	Operator string
	Value    any
}

func encodeFilters(filters []filter) string {
	raw := make([][]any, 0, len(filters))
	for _, f := range filters {
		raw = append(raw, []any{f.Field, f.Operator, f.Value})
	}
	data, _ := json.Marshal(raw)
	return string(data)
}

// listResponse is the Frappe list envelope
type listResponse[T any] struct {
	Data []T `json:"data"`
}

// docResponse is the Frappe single-document envelope
type docResponse[T any] struct {
	Data T `json:"data"`
}

func (c *HTTPClient) resourceURL(doctype, name string) string {
	u := c.baseURL + "/api/resource/" + url.PathEscape(doctype)
	if name != "" {
		u += "/" + url.PathEscape(name)
	}
	return u
}

func (c *HTTPClient) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "token "+c.apiKey+":"+c.apiSecret)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *HTTPClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// Read one byte past the limit to detect oversized bodies
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("erp: reading response: %w", err)
	}
	if int64(len(body)) > c.maxResponseSize {
		return nil, ErrResponseLarge
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("erp: unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// list fetches all documents of a doctype matching the filters
func list[T any](ctx context.Context, c *HTTPClient, doctype string, filters []filter) ([]T, error) {
	q := url.Values{}
	q.Set("fields", `["*"]`)
	q.Set("limit_page_length", "0")
	if len(filters) > 0 {
		q.Set("filters", encodeFilters(filters))
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.resourceURL(doctype, "")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var envelope listResponse[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("erp: decoding %s list: %w", doctype, err)
	}
	return envelope.Data, nil
}

// get fetches one document by name
func get[T any](ctx context.Context, c *HTTPClient, doctype, name string) (*T, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.resourceURL(doctype, name), nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var envelope docResponse[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("erp: decoding %s: %w", doctype, err)
	}
	return &envelope.Data, nil
}

// create posts a new document
func create[T any](ctx context.Context, c *HTTPClient, doctype string, doc T) (*T, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.resourceURL(doctype, ""), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var envelope docResponse[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("erp: decoding created %s: %w", doctype, err)
	}
	return &envelope.Data, nil
}

// update patches fields on an existing document
func update[T any](ctx context.Context, c *HTTPClient, doctype, name string, fields map[string]any) (*T, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.resourceURL(doctype, name), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var envelope docResponse[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("erp: decoding updated %s: %w", doctype, err)
	}
	return &envelope.Data, nil
}

// Ping verifies upstream reachability
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/api/method/ping", nil)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

// ProbeDoctype reports whether a doctype is reachable upstream. A 404 means
// the doctype is not installed; auth and transport failures propagate.
func (c *HTTPClient) ProbeDoctype(ctx context.Context, doctype string) (bool, error) {
	q := url.Values{}
	q.Set("limit_page_length", "1")
	q.Set("fields", `["name"]`)

	req, err := c.newRequest(ctx, http.MethodGet, c.resourceURL(doctype, "")+"?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}

	_, err = c.do(req)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListProjects returns the projects belonging to a customer
func (c *HTTPClient) ListProjects(ctx context.Context, customerID string) ([]Project, error) {
	var filters []filter
	if customerID != "" {
		filters = append(filters, filter{"customer", "=", customerID})
	}
	return list[Project](ctx, c, DoctypeProject, filters)
}

// GetProject returns one project by name
func (c *HTTPClient) GetProject(ctx context.Context, name string) (*Project, error) {
	return get[Project](ctx, c, DoctypeProject, name)
}

// ListRequests returns the client requests raised against a project
func (c *HTTPClient) ListRequests(ctx context.Context, projectID string) ([]ClientRequest, error) {
	return list[ClientRequest](ctx, c, DoctypeClientRequest, []filter{{"project", "=", projectID}})
}

// GetRequest returns one client request by name
func (c *HTTPClient) GetRequest(ctx context.Context, name string) (*ClientRequest, error) {
	return get[ClientRequest](ctx, c, DoctypeClientRequest, name)
}

// CreateRequest raises a new client request
func (c *HTTPClient) CreateRequest(ctx context.Context, req ClientRequest) (*ClientRequest, error) {
	return create(ctx, c, DoctypeClientRequest, req)
}

// UpdateRequest applies field updates to a client request
func (c *HTTPClient) UpdateRequest(ctx context.Context, name string, fields map[string]any) (*ClientRequest, error) {
	return update[ClientRequest](ctx, c, DoctypeClientRequest, name, fields)
}

// ListInvoices returns submitted invoices for a customer, optionally limited
// to one project
func (c *HTTPClient) ListInvoices(ctx context.Context, customerID, projectID string) ([]SalesInvoice, error) {
	filters := []filter{{"customer", "=", customerID}, {"docstatus", "=", 1}}
	if projectID != "" {
		filters = append(filters, filter{"project", "=", projectID})
	}
	return list[SalesInvoice](ctx, c, DoctypeSalesInvoice, filters)
}

// GetInvoice returns one sales invoice by name
func (c *HTTPClient) GetInvoice(ctx context.Context, name string) (*SalesInvoice, error) {
	return get[SalesInvoice](ctx, c, DoctypeSalesInvoice, name)
}

// ListContracts returns contracts for a customer, optionally limited to one project
func (c *HTTPClient) ListContracts(ctx context.Context, customerID, projectID string) ([]Contract, error) {
	filters := []filter{{"party_name", "=", customerID}}
	if projectID != "" {
		filters = append(filters, filter{"project", "=", projectID})
	}
	return list[Contract](ctx, c, DoctypeContract, filters)
}

// GetContract returns one contract by name
func (c *HTTPClient) GetContract(ctx context.Context, name string) (*Contract, error) {
	return get[Contract](ctx, c, DoctypeContract, name)
}

// SignContract marks a contract as executed by the given party
func (c *HTTPClient) SignContract(ctx context.Context, name, signedBy string) (*Contract, error) {
	return update[Contract](ctx, c, DoctypeContract, name, map[string]any{
		"is_signed": 1,
		"signed_by": signedBy,
	})
}

// ListDeliverables returns deliverables for a project
func (c *HTTPClient) ListDeliverables(ctx context.Context, projectID string) ([]Deliverable, error) {
	return list[Deliverable](ctx, c, DoctypeDeliverable, []filter{{"project", "=", projectID}})
}

// GetDeliverable returns one deliverable by name
func (c *HTTPClient) GetDeliverable(ctx context.Context, name string) (*Deliverable, error) {
	return get[Deliverable](ctx, c, DoctypeDeliverable, name)
}

// ListFiles returns the files attached to a document
func (c *HTTPClient) ListFiles(ctx context.Context, doctype, docname string) ([]File, error) {
	return list[File](ctx, c, DoctypeFile, []filter{
		{"attached_to_doctype", "=", doctype},
		{"attached_to_name", "=", docname},
	})
}

// UploadFile pushes a file into the ERP via the upload_file method, attached
// to the given document
func (c *HTTPClient) UploadFile(ctx context.Context, input UploadInput) (*File, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", input.FileName)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(input.Content); err != nil {
		return nil, err
	}

	isPrivate := "0"
	if input.IsPrivate {
		isPrivate = "1"
	}
	fields := map[string]string{
		"is_private": isPrivate,
		"doctype":    input.AttachedToDoctype,
		"docname":    input.AttachedToName,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := writer.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/api/method/upload_file", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	// upload_file wraps the created File doc in a "message" envelope
	var envelope struct {
		Message File `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("erp: decoding upload response: %w", err)
	}
	return &envelope.Message, nil
}

// DownloadFile streams a file body from the ERP. Returns the content and the
// upstream content type.
func (c *HTTPClient) DownloadFile(ctx context.Context, fileURL string) ([]byte, string, error) {
	full := fileURL
	if strings.HasPrefix(fileURL, "/") {
		full = c.baseURL + fileURL
	}

	req, err := c.newRequest(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("erp: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(body)) > c.maxResponseSize {
		return nil, "", ErrResponseLarge
	}

	return body, resp.Header.Get("Content-Type"), nil
}

var _ Client = (*HTTPClient)(nil)
