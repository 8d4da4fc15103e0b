package vika

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the Vika fusion API root.
const DefaultBaseURL = "https://vika.cn/fusion/v1"

// Store is the remote table as seen by the reconciler.
type Store interface {
	ListRecords(ctx context.Context, pageNum, pageSize int) ([]RemoteRecord, error)
	CreateRecords(ctx context.Context, records []Fields) error
	UpdateRecords(ctx context.Context, updates []Update) error
	DeleteRecords(ctx context.Context, ids []string) error
}

// Client talks to the records endpoint of one datasheet. Every call waits on
// the pacer first and is bounded by the timeout.
type Client struct {
	http      *http.Client
	base      string
	token     string
	datasheet string
	timeout   time.Duration
	pacer     *Pacer
}

var _ Store = (*Client)(nil)

// NewClient returns a Client for the datasheet. httpClient may be nil.
func NewClient(httpClient *http.Client, base, token, datasheet string, timeout time.Duration, pacer *Pacer) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if base == "" {
		base = DefaultBaseURL
	}
	if pacer == nil {
		pacer = NewPacer(0, nil)
	}
	return &Client{
		http:      httpClient,
		base:      strings.TrimSuffix(base, "/"),
		token:     token,
		datasheet: datasheet,
		timeout:   timeout,
		pacer:     pacer,
	}
}

// envelope is the common shape of every Vika response.
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ListRecords fetches one page of rows.
func (c *Client) ListRecords(ctx context.Context, pageNum, pageSize int) ([]RemoteRecord, error) {
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("pageNum", strconv.Itoa(pageNum))

	data, err := c.do(ctx, "list", http.MethodGet, q, nil)
	if err != nil {
		return nil, err
	}
	var page struct {
		Records *[]RemoteRecord `json:"records"`
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, &TransportError{Op: "list", Err: fmt.Errorf("%w: no data", ErrMalformedResponse)}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&page); err != nil {
		return nil, &TransportError{Op: "list", Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if page.Records == nil {
		return nil, &TransportError{Op: "list", Err: fmt.Errorf("%w: missing data.records", ErrMalformedResponse)}
	}
	return *page.Records, nil
}

// CreateRecords adds new rows.
func (c *Client) CreateRecords(ctx context.Context, records []Fields) error {
	type row struct {
		Fields Fields `json:"fields"`
	}
	body := struct {
		Records []row `json:"records"`
	}{Records: make([]row, len(records))}
	for i, f := range records {
		body.Records[i] = row{Fields: f}
	}
	_, err := c.do(ctx, "create", http.MethodPost, nil, body)
	return err
}

// UpdateRecords overwrites the fields of existing rows.
func (c *Client) UpdateRecords(ctx context.Context, updates []Update) error {
	body := struct {
		Records []Update `json:"records"`
	}{Records: updates}
	_, err := c.do(ctx, "update", http.MethodPatch, nil, body)
	return err
}

// DeleteRecords removes rows by id.
func (c *Client) DeleteRecords(ctx context.Context, ids []string) error {
	q := url.Values{}
	q.Set("recordIds", strings.Join(ids, ","))
	_, err := c.do(ctx, "delete", http.MethodDelete, q, nil)
	return err
}

// do performs one paced call and returns the envelope's data.
func (c *Client) do(ctx context.Context, op, method string, query url.Values, body any) (json.RawMessage, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	addr := c.base + "/datasheets/" + url.PathEscape(c.datasheet) + "/records"
	if len(query) > 0 {
		// keep the comma separated ids readable
		addr += "?" + strings.ReplaceAll(query.Encode(), "%2C", ",")
	}

	var payload io.Reader
	if body != nil {
		content, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("cannot encode %s request: %w", op, err)
		}
		payload = bytes.NewReader(content)
	}

	req, err := http.NewRequestWithContext(ctx, method, addr, payload)
	if err != nil {
		return nil, fmt.Errorf("cannot create http request %q: %w", addr, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	log.Printf("%v %v%v %v", method, req.URL.Host, req.URL.Path, resp.Status)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: %s %s", ErrUnauthorized, op, resp.Status)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("cannot read http body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("http %s", resp.Status)}
	}

	var env envelope
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if !env.Success {
		if env.Code == http.StatusUnauthorized || env.Code == http.StatusForbidden {
			return nil, fmt.Errorf("%w: %s: %s", ErrUnauthorized, op, env.Message)
		}
		return nil, &TransportError{Op: op, Err: fmt.Errorf("code %d: %s", env.Code, env.Message)}
	}
	return env.Data, nil
}
