package gateway_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payflow/internal/dedup"
	"payflow/internal/gateway"
	"payflow/internal/ledger"
	"payflow/internal/store"
	"payflow/internal/testsupport"
	"payflow/internal/workflow"
)

type harness struct {
	server *gateway.Server
	tab    *testsupport.MemoryTabular
}

func newHarness(t *testing.T, opts gateway.Options, dedupStore *dedup.Store) *harness {
	t.Helper()
	tab := testsupport.NewMemoryTabular()
	st := store.New(tab, "Requests")
	if err := st.Init(t.Context()); err != nil {
		t.Fatalf("store init failed: %v", err)
	}
	engine := workflow.New(
		workflow.Config{ApproverRole: "managers", CodePrefix: "EXP", MaxEvidence: 5},
		st,
		ledger.NewPoster(testsupport.NewMemoryTabular()),
		testsupport.NewRecordingAnnouncer(),
		nil,
		nil,
		workflow.WithClock(func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }),
	)
	return &harness{server: gateway.New(opts, engine, dedupStore, nil), tab: tab}
}

func (h *harness) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(recorder, req)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(recorder.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
	return out
}

func submitBody() map[string]any {
	return map[string]any{
		"requesterId":  "user-1",
		"requesterTag": "lan#0421",
		"amount":       500000,
		"purpose":      "marketing",
		"evidenceRefs": []string{"https://files.example/receipt.png"},
	}
}

func (h *harness) submit(t *testing.T) string {
	t.Helper()
	recorder := h.do(t, http.MethodPost, "/api/requests", submitBody(), nil)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	body := decode[map[string]any](t, recorder)
	code, _ := body["code"].(string)
	if code == "" {
		t.Fatalf("submit returned no code: %v", body)
	}
	return code
}

func TestSubmitAndFetch(t *testing.T) {
	h := newHarness(t, gateway.Options{}, nil)
	code := h.submit(t)

	recorder := h.do(t, http.MethodGet, "/api/requests/"+code, nil, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("get status = %d", recorder.Code)
	}
	view := decode[map[string]any](t, recorder)
	if view["status"] != "PENDING" || view["amount"] != float64(500000) {
		t.Fatalf("unexpected view: %v", view)
	}
	if recorder.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a correlation ID header")
	}
}

func TestSubmitValidationError(t *testing.T) {
	h := newHarness(t, gateway.Options{}, nil)
	body := submitBody()
	body["evidenceRefs"] = []string{}

	recorder := h.do(t, http.MethodPost, "/api/requests", body, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
	if rows := h.tab.TableRows("Requests"); len(rows) != 1 {
		t.Fatal("invalid submission must not be persisted")
	}
}

func TestDecisionFlow(t *testing.T) {
	h := newHarness(t, gateway.Options{}, nil)
	code := h.submit(t)

	recorder := h.do(t, http.MethodPost, "/api/requests/"+code+"/decision", map[string]any{
		"actorTag": "boss#0001",
		"roles":    []string{"managers"},
		"outcome":  "approve",
	}, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("decision status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	body := decode[map[string]any](t, recorder)
	if body["status"] != "APPROVED" || body["ledgerPosted"] != true {
		t.Fatalf("unexpected decision body: %v", body)
	}

	// Replaying the decision reports the settled outcome as a conflict.
	recorder = h.do(t, http.MethodPost, "/api/requests/"+code+"/decision", map[string]any{
		"actorTag": "boss#0002",
		"roles":    []string{"managers"},
		"outcome":  "rejected",
		"reason":   "changed my mind",
	}, nil)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("replay status = %d, want 409", recorder.Code)
	}
	conflict := decode[map[string]any](t, recorder)
	if conflict["settledStatus"] != "APPROVED" {
		t.Fatalf("conflict must name the settled status: %v", conflict)
	}
}

func TestDecisionWithoutRole(t *testing.T) {
	h := newHarness(t, gateway.Options{}, nil)
	code := h.submit(t)

	recorder := h.do(t, http.MethodPost, "/api/requests/"+code+"/decision", map[string]any{
		"actorTag": "peer#0002",
		"roles":    []string{"members"},
		"outcome":  "approve",
	}, nil)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", recorder.Code)
	}
}

func TestDecisionUnknownOutcome(t *testing.T) {
	h := newHarness(t, gateway.Options{}, nil)
	code := h.submit(t)

	recorder := h.do(t, http.MethodPost, "/api/requests/"+code+"/decision", map[string]any{
		"roles":   []string{"managers"},
		"outcome": "maybe",
	}, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}

func TestWithdrawFlow(t *testing.T) {
	h := newHarness(t, gateway.Options{}, nil)
	code := h.submit(t)

	recorder := h.do(t, http.MethodPost, "/api/requests/"+code+"/withdraw", map[string]any{
		"requesterId": "someone-else",
	}, nil)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("foreign withdraw status = %d, want 403", recorder.Code)
	}

	recorder = h.do(t, http.MethodPost, "/api/requests/"+code+"/withdraw", map[string]any{
		"requesterId": "user-1",
	}, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("withdraw status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	view := decode[map[string]any](t, recorder)
	if view["status"] != "WITHDRAWN" {
		t.Fatalf("unexpected status: %v", view["status"])
	}
}

func TestGetUnknownCode(t *testing.T) {
	h := newHarness(t, gateway.Options{}, nil)
	recorder := h.do(t, http.MethodGet, "/api/requests/EXP-20260314-ZZZZ", nil, nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	h := newHarness(t, gateway.Options{}, nil)
	first := h.submit(t)
	second := h.submit(t)

	recorder := h.do(t, http.MethodPost, "/api/requests/"+first+"/withdraw", map[string]any{
		"requesterId": "user-1",
	}, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("withdraw failed: %s", recorder.Body.String())
	}

	recorder = h.do(t, http.MethodGet, "/api/requests?status=pending", nil, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("list status = %d", recorder.Code)
	}
	list := decode[map[string]any](t, recorder)
	if list["count"] != float64(1) {
		t.Fatalf("expected one pending request, got %v", list["count"])
	}
	items := list["requests"].([]any)
	if items[0].(map[string]any)["code"] != second {
		t.Fatalf("wrong request listed: %v", items)
	}
}

func TestBearerTokenGuardsAPI(t *testing.T) {
	h := newHarness(t, gateway.Options{Token: "s3cret"}, nil)

	recorder := h.do(t, http.MethodGet, "/api/requests", nil, nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", recorder.Code)
	}

	recorder = h.do(t, http.MethodGet, "/api/requests", nil, map[string]string{
		"Authorization": "Bearer s3cret",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", recorder.Code)
	}

	// Health stays open for probes.
	recorder = h.do(t, http.MethodGet, "/healthz", nil, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", recorder.Code)
	}
}

func TestReplayedDeliveryReturnsOriginalRequest(t *testing.T) {
	deliveries, err := dedup.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open dedup store: %v", err)
	}
	t.Cleanup(func() { _ = deliveries.Close() })
	h := newHarness(t, gateway.Options{}, deliveries)

	body := submitBody()
	body["deliveryId"] = "discord-msg-42"

	first := h.do(t, http.MethodPost, "/api/requests", body, nil)
	if first.Code != http.StatusCreated {
		t.Fatalf("first submit status = %d", first.Code)
	}
	firstBody := decode[map[string]any](t, first)

	second := h.do(t, http.MethodPost, "/api/requests", body, nil)
	if second.Code != http.StatusOK {
		t.Fatalf("replay status = %d, want 200", second.Code)
	}
	secondBody := decode[map[string]any](t, second)
	if secondBody["replay"] != true {
		t.Fatalf("replay flag missing: %v", secondBody)
	}
	if secondBody["code"] != firstBody["code"] {
		t.Fatalf("replay returned a different request: %v vs %v", secondBody["code"], firstBody["code"])
	}

	if rows := h.tab.TableRows("Requests"); len(rows) != 2 {
		t.Fatalf("replay must not append a second row, found %d", len(rows)-1)
	}
}

func TestCorrelationIDPropagation(t *testing.T) {
	h := newHarness(t, gateway.Options{}, nil)
	recorder := h.do(t, http.MethodGet, "/healthz", nil, map[string]string{
		"X-Request-ID": "corr-123",
	})
	if got := recorder.Header().Get("X-Request-ID"); got != "corr-123" {
		t.Fatalf("correlation ID = %q, want corr-123", got)
	}
}

func TestNormalizedRouteDoesNotLeakCodes(t *testing.T) {
	// Smoke check around metric label shape: exercising several codes must
	// not fail (promauto panics on inconsistent labels).
	h := newHarness(t, gateway.Options{}, nil)
	for i := 0; i < 3; i++ {
		h.do(t, http.MethodGet, fmt.Sprintf("/api/requests/EXP-20260314-%04d", i), nil, nil)
	}
}
