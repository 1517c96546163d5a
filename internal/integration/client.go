// Package integration is a Go client for the seqwin-srv HTTP API.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/go-sod/seqwin/internal/observation/model"
	"github.com/go-sod/seqwin/internal/pipeline"
	"github.com/go-sod/seqwin/internal/run"
)

// StatusError is returned for any non-200 response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

type prefixRoundTripper struct {
	addr string
	rt   http.RoundTripper
}

func (p *prefixRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	u := r.URL
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Host == "" {
		u.Host = p.addr
	}

	return p.rt.RoundTrip(r)
}

// NewClient sends every request to addr (host:port) unless the request URL
// names a host itself.
func NewClient(addr string) *Client {
	return &Client{client: &http.Client{Transport: &prefixRoundTripper{addr: addr, rt: http.DefaultTransport}}}
}

type Client struct {
	client *http.Client
}

type collectResponse struct {
	Collected int `json:"collected"`
}

// Collect pushes a batch and returns the number of accepted rows.
func (c *Client) Collect(ctx context.Context, b model.Batch) (int, error) {
	var resp collectResponse
	if err := c.do(ctx, http.MethodPost, "/collect", &b, &resp); err != nil {
		return 0, err
	}
	return resp.Collected, nil
}

func (c *Client) Run(ctx context.Context, r run.Request) (*pipeline.Report, error) {
	var rep pipeline.Report
	if err := c.do(ctx, http.MethodPost, "/run", &r, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Report returns the latest report of dataset.
func (c *Client) Report(ctx context.Context, dataset string) (*pipeline.Report, error) {
	var rep pipeline.Report
	if err := c.do(ctx, http.MethodGet, "/report?dataset="+url.QueryEscape(dataset), nil, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (c *Client) History(ctx context.Context, dataset string) ([]pipeline.Report, error) {
	var list []pipeline.Report
	if err := c.do(ctx, http.MethodGet, "/report?history=true&dataset="+url.QueryEscape(dataset), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("unable marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("create new request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
