package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"payflow/internal/config"
	"payflow/internal/request"
)

const userAgent = "payflow/0.1.0"

// Kind identifies the lifecycle moment an announcement reports.
type Kind string

const (
	KindPostedForReview Kind = "posted-for-review"
	KindApproved        Kind = "approved"
	KindRejected        Kind = "rejected"
	KindWithdrawn       Kind = "withdrawn"
)

// Audience selects which surface receives the announcement.
type Audience string

const (
	AudienceReview Audience = "reviewSurface"
	AudienceOrigin Audience = "originSurface"
)

// Event is one human-readable status update about a request.
type Event struct {
	Kind     Kind
	Audience Audience
	Request  *request.Request
}

// Announcer delivers events to the front end. Announce returns the posting
// reference of the created or updated artifact when the surface provides one;
// the engine persists review-surface references back onto the request row.
type Announcer interface {
	Announce(ctx context.Context, event Event) (string, error)
}

// NewAnnouncer builds a webhook announcer from configuration. With a nil
// config or neither webhook configured, a noop implementation is returned.
func NewAnnouncer(cfg *config.Config) Announcer {
	if cfg == nil {
		return noopAnnouncer{}
	}
	review := strings.TrimSpace(cfg.Notifications.ReviewWebhook)
	origin := strings.TrimSpace(cfg.Notifications.OriginWebhook)
	if review == "" && origin == "" {
		return noopAnnouncer{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &webhookAnnouncer{
		reviewURL: review,
		originURL: origin,
		client:    &http.Client{Timeout: timeout},
	}
}

type webhookAnnouncer struct {
	reviewURL string
	originURL string
	client    *http.Client
}

type webhookPayload struct {
	Kind         string   `json:"kind"`
	Code         string   `json:"code"`
	Audience     string   `json:"audience"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Amount       string   `json:"amount"`
	Purpose      string   `json:"purpose"`
	RequesterTag string   `json:"requesterTag"`
	DeciderTag   string   `json:"deciderTag,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	Origin       string   `json:"origin,omitempty"`
	EvidenceRefs []string `json:"evidenceRefs,omitempty"`
	PostingRef   string   `json:"postingRef,omitempty"`
}

type webhookResponse struct {
	Ref string `json:"ref"`
}

func (w *webhookAnnouncer) Announce(ctx context.Context, event Event) (string, error) {
	if event.Request == nil {
		return "", fmt.Errorf("announce %s: request is required", event.Kind)
	}

	endpoint := w.originURL
	if event.Audience == AudienceReview {
		endpoint = w.reviewURL
	}
	if endpoint == "" {
		return "", nil
	}

	payload := buildPayload(event)
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode announcement: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build announcement request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send announcement: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("announcement endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed webhookResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&parsed); err != nil {
		// A surface that returns no body simply provides no posting ref.
		return "", nil
	}
	return parsed.Ref, nil
}

func buildPayload(event Event) webhookPayload {
	req := event.Request
	payload := webhookPayload{
		Kind:         string(event.Kind),
		Code:         req.Code,
		Audience:     string(event.Audience),
		Amount:       FormatAmount(req.Amount),
		Purpose:      string(req.Purpose),
		RequesterTag: req.RequesterTag,
		DeciderTag:   req.DeciderTag,
		Reason:       req.DecisionReason,
		Origin:       req.OriginSurface,
		EvidenceRefs: req.EvidenceRefs,
		PostingRef:   req.PostingRef,
	}

	switch event.Kind {
	case KindPostedForReview:
		payload.Title = fmt.Sprintf("Expenditure request %s", req.Code)
		payload.Body = fmt.Sprintf("%s requests %s for %s. Awaiting review.", req.RequesterTag, payload.Amount, req.Purpose)
	case KindApproved:
		payload.Title = fmt.Sprintf("Approved: %s", req.Code)
		payload.Body = fmt.Sprintf("%s approved %s (%s, %s).", req.DeciderTag, req.Code, payload.Amount, req.Purpose)
	case KindRejected:
		payload.Title = fmt.Sprintf("Rejected: %s", req.Code)
		payload.Body = fmt.Sprintf("%s rejected %s. Reason: %s", req.DeciderTag, req.Code, req.DecisionReason)
	case KindWithdrawn:
		payload.Title = fmt.Sprintf("Withdrawn: %s", req.Code)
		payload.Body = fmt.Sprintf("%s withdrew %s.", req.RequesterTag, req.Code)
	default:
		payload.Title = req.Code
		payload.Body = string(event.Kind)
	}
	return payload
}

// FormatAmount renders an amount with digit grouping for chat display.
func FormatAmount(amount int64) string {
	printer := message.NewPrinter(language.English)
	return printer.Sprintf("%d", amount)
}

type noopAnnouncer struct{}

func (noopAnnouncer) Announce(context.Context, Event) (string, error) { return "", nil }
