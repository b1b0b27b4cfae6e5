// Package client is a Go client for the equiploan HTTP API, plus an
// in-memory cache of the three collections that is rebuilt wholesale after
// every mutation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"equiploan-backend/internal/inventory/employees"
	"equiploan-backend/internal/inventory/equipment"
	"equiploan-backend/internal/inventory/loans"
)

type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken attaches a bearer token to every following request.
func (c *Client) SetToken(token string) { c.token = token }

// APIError is a non-2xx response decoded from the server's {"error": ...}
// body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

// Login exchanges credentials for a token and attaches it to the client.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/login", nil,
		map[string]string{"username": username, "password": password}, &out)
	if err != nil {
		return "", err
	}
	c.token = out.Token
	return out.Token, nil
}

func (c *Client) ListEmployees(ctx context.Context) ([]employees.Employee, error) {
	var out []employees.Employee
	err := c.do(ctx, http.MethodGet, "/employees", nil, nil, &out)
	return out, err
}

func (c *Client) UpsertEmployee(ctx context.Context, in employees.UpsertEmployeeRequest) error {
	return c.do(ctx, http.MethodPost, "/employees", nil, in, nil)
}

func (c *Client) DeleteEmployee(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/employees", url.Values{"id": {id}}, nil, nil)
}

func (c *Client) ListEquipment(ctx context.Context) ([]equipment.Equipment, error) {
	var out []equipment.Equipment
	err := c.do(ctx, http.MethodGet, "/equipment", nil, nil, &out)
	return out, err
}

func (c *Client) UpsertEquipment(ctx context.Context, in equipment.UpsertEquipmentRequest) error {
	return c.do(ctx, http.MethodPost, "/equipment", nil, in, nil)
}

func (c *Client) DeleteEquipment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/equipment", url.Values{"id": {id}}, nil, nil)
}

func (c *Client) ListLoans(ctx context.Context) ([]loans.LoanResponse, error) {
	var out []loans.LoanResponse
	err := c.do(ctx, http.MethodGet, "/loans", nil, nil, &out)
	return out, err
}

func (c *Client) CreateLoan(ctx context.Context, in loans.CreateLoanRequest) error {
	return c.do(ctx, http.MethodPost, "/loans", nil, in, nil)
}

func (c *Client) ReturnLoan(ctx context.Context, in loans.ReturnLoanRequest) error {
	return c.do(ctx, http.MethodPut, "/loans", nil, in, nil)
}

// DownloadReceipt fetches the rendered PDF for a loan.
func (c *Client) DownloadReceipt(ctx context.Context, loanID, mode string) ([]byte, error) {
	u := fmt.Sprintf("%s/loans/%s/receipt?mode=%s", c.baseURL, url.PathEscape(loanID), url.QueryEscape(mode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(raw)}
	}
	return raw, nil
}
