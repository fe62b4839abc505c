package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// apiClient is a thin HTTP client for the daemon's API surface.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(base, token string) *apiClient {
	return &apiClient{
		base:  base,
		token: token,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

type submitRequest struct {
	DeliveryID    string   `json:"deliveryId,omitempty"`
	RequesterID   string   `json:"requesterId"`
	RequesterTag  string   `json:"requesterTag"`
	OriginSurface string   `json:"originSurface,omitempty"`
	Amount        int64    `json:"amount"`
	Purpose       string   `json:"purpose"`
	Note          string   `json:"note,omitempty"`
	EvidenceRefs  []string `json:"evidenceRefs"`
}

type submitReply struct {
	Code      string `json:"code"`
	Status    string `json:"status"`
	Announced bool   `json:"announced"`
	Replay    bool   `json:"replay"`
	Warning   string `json:"warning"`
}

type decisionRequest struct {
	ActorID  string   `json:"actorId"`
	ActorTag string   `json:"actorTag"`
	Roles    []string `json:"roles"`
	Outcome  string   `json:"outcome"`
	Reason   string   `json:"reason,omitempty"`
}

type decisionReply struct {
	Code         string    `json:"code"`
	Status       string    `json:"status"`
	DeciderTag   string    `json:"deciderTag"`
	DecidedAt    time.Time `json:"decidedAt"`
	LedgerPosted bool      `json:"ledgerPosted"`
	Warning      string    `json:"warning"`
}

type withdrawRequest struct {
	RequesterID string `json:"requesterId"`
}

type requestReply struct {
	Code           string     `json:"code"`
	CreatedAt      time.Time  `json:"createdAt"`
	RequesterID    string     `json:"requesterId"`
	RequesterTag   string     `json:"requesterTag"`
	OriginSurface  string     `json:"originSurface"`
	Amount         int64      `json:"amount"`
	Purpose        string     `json:"purpose"`
	Note           string     `json:"note"`
	EvidenceRefs   []string   `json:"evidenceRefs"`
	Status         string     `json:"status"`
	DeciderTag     string     `json:"deciderTag"`
	DecisionReason string     `json:"decisionReason"`
	DecidedAt      *time.Time `json:"decidedAt"`
	PostingRef     string     `json:"postingRef"`
}

type listReply struct {
	Requests []requestReply `json:"requests"`
	Count    int            `json:"count"`
}

type apiError struct {
	Status        int
	Message       string `json:"error"`
	SettledStatus string `json:"settledStatus"`
}

func (e *apiError) Error() string {
	if e.SettledStatus != "" {
		return fmt.Sprintf("%s (settled as %s)", e.Message, e.SettledStatus)
	}
	return e.Message
}

func (c *apiClient) Submit(ctx context.Context, in submitRequest) (*submitReply, error) {
	var out submitReply
	if err := c.do(ctx, http.MethodPost, "/api/requests", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Decide(ctx context.Context, code string, in decisionRequest) (*decisionReply, error) {
	var out decisionReply
	path := "/api/requests/" + url.PathEscape(code) + "/decision"
	if err := c.do(ctx, http.MethodPost, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Withdraw(ctx context.Context, code, requesterID string) (*requestReply, error) {
	var out requestReply
	path := "/api/requests/" + url.PathEscape(code) + "/withdraw"
	if err := c.do(ctx, http.MethodPost, path, withdrawRequest{RequesterID: requesterID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Get(ctx context.Context, code string) (*requestReply, error) {
	var out requestReply
	if err := c.do(ctx, http.MethodGet, "/api/requests/"+url.PathEscape(code), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) List(ctx context.Context, status string) (*listReply, error) {
	path := "/api/requests"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var out listReply
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect to daemon at %s: %w (is payflowd running?)", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &apiError{Status: resp.StatusCode, Message: resp.Status}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
