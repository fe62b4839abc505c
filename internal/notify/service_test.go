package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payflow/internal/config"
	"payflow/internal/notify"
	"payflow/internal/request"
)

func sampleRequest() *request.Request {
	return &request.Request{
		Code:          "EXP-20260314-K7Q2",
		CreatedAt:     time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		RequesterID:   "user-1",
		RequesterTag:  "lan#0421",
		OriginSurface: "channel-9",
		Amount:        500000,
		Purpose:       request.PurposeMarketing,
		EvidenceRefs:  []string{"https://files.example/img1.png"},
		Status:        request.StatusPending,
	}
}

func newConfig(review, origin string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.ReviewWebhook = review
	cfg.Notifications.OriginWebhook = origin
	cfg.Notifications.RequestTimeout = 2
	return &cfg
}

func TestAnnouncePostsJSONAndReturnsRef(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"ref": "msg-77"})
	}))
	defer server.Close()

	announcer := notify.NewAnnouncer(newConfig(server.URL, ""))
	ref, err := announcer.Announce(context.Background(), notify.Event{
		Kind:     notify.KindPostedForReview,
		Audience: notify.AudienceReview,
		Request:  sampleRequest(),
	})
	if err != nil {
		t.Fatalf("Announce failed: %v", err)
	}
	if ref != "msg-77" {
		t.Fatalf("expected posting ref msg-77, got %q", ref)
	}
	if got["kind"] != "posted-for-review" || got["code"] != "EXP-20260314-K7Q2" {
		t.Fatalf("unexpected payload: %v", got)
	}
	if got["amount"] != "500,000" {
		t.Fatalf("expected grouped amount, got %v", got["amount"])
	}
}

func TestAnnounceReportsEndpointFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing access", http.StatusForbidden)
	}))
	defer server.Close()

	announcer := notify.NewAnnouncer(newConfig(server.URL, ""))
	if _, err := announcer.Announce(context.Background(), notify.Event{
		Kind:     notify.KindPostedForReview,
		Audience: notify.AudienceReview,
		Request:  sampleRequest(),
	}); err == nil {
		t.Fatal("expected error from failing endpoint")
	}
}

func TestAnnounceSkipsUnconfiguredSurface(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("origin webhook should not be called")
	}))
	defer server.Close()

	// Only the review webhook is configured; origin announcements are no-ops.
	announcer := notify.NewAnnouncer(newConfig(server.URL+"/review", ""))
	ref, err := announcer.Announce(context.Background(), notify.Event{
		Kind:     notify.KindApproved,
		Audience: notify.AudienceOrigin,
		Request:  sampleRequest(),
	})
	if err != nil || ref != "" {
		t.Fatalf("expected silent skip, got ref=%q err=%v", ref, err)
	}
}

func TestNewAnnouncerWithoutWebhooksIsNoop(t *testing.T) {
	announcer := notify.NewAnnouncer(newConfig("", ""))
	ref, err := announcer.Announce(context.Background(), notify.Event{
		Kind:     notify.KindWithdrawn,
		Audience: notify.AudienceReview,
		Request:  sampleRequest(),
	})
	if err != nil || ref != "" {
		t.Fatalf("noop announcer should succeed silently, got ref=%q err=%v", ref, err)
	}
}

func TestNewAnnouncerNilConfigIsNoop(t *testing.T) {
	announcer := notify.NewAnnouncer(nil)
	ref, err := announcer.Announce(context.Background(), notify.Event{
		Kind:     notify.KindPostedForReview,
		Audience: notify.AudienceReview,
		Request:  sampleRequest(),
	})
	if err != nil || ref != "" {
		t.Fatalf("nil config must yield a noop announcer, got ref=%q err=%v", ref, err)
	}
}

func TestFormatAmount(t *testing.T) {
	if got := notify.FormatAmount(500000); got != "500,000" {
		t.Fatalf("FormatAmount(500000) = %q", got)
	}
	if got := notify.FormatAmount(42); got != "42" {
		t.Fatalf("FormatAmount(42) = %q", got)
	}
}
