package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"payflow/internal/request"
	"payflow/internal/store"
	"payflow/internal/testsupport"
)

func newStore(t *testing.T) (*store.Store, *testsupport.MemoryTabular) {
	t.Helper()
	tab := testsupport.NewMemoryTabular()
	st := store.New(tab, "Requests")
	if err := st.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return st, tab
}

func sampleRequest(code string) *request.Request {
	return &request.Request{
		Code:          code,
		CreatedAt:     time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		RequesterID:   "user-1",
		RequesterTag:  "lan#0421",
		OriginSurface: "channel-9",
		Amount:        500000,
		Purpose:       request.PurposeMarketing,
		Note:          "campaign assets",
		EvidenceRefs:  []string{"https://files.example/img1.png", "https://files.example/img2.png"},
		Status:        request.StatusPending,
	}
}

func TestAppendAndReadRoundTrip(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()

	want := sampleRequest("EXP-20260314-AAAA")
	if err := st.Append(ctx, want); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	index, err := st.FindRowByCode(ctx, want.Code)
	if err != nil {
		t.Fatalf("FindRowByCode failed: %v", err)
	}
	got, err := st.Read(ctx, index)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Code != want.Code || got.Amount != want.Amount || got.Purpose != want.Purpose {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.EvidenceRefs) != 2 || got.EvidenceRefs[1] != "https://files.example/img2.png" {
		t.Fatalf("evidence refs mismatch: %v", got.EvidenceRefs)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("created_at mismatch: %v", got.CreatedAt)
	}
	if got.DecidedAt != (time.Time{}) {
		t.Fatalf("expected zero decided_at, got %v", got.DecidedAt)
	}
}

func TestFindRowByCodeMissing(t *testing.T) {
	st, _ := newStore(t)
	if _, err := st.FindRowByCode(context.Background(), "EXP-20260314-ZZZZ"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindRowByCodeRescansOnMiss(t *testing.T) {
	st, tab := newStore(t)
	ctx := context.Background()

	if err := st.Append(ctx, sampleRequest("EXP-20260314-AAAA")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if _, err := st.FindRowByCode(ctx, "EXP-20260314-AAAA"); err != nil {
		t.Fatalf("initial find failed: %v", err)
	}

	// Another writer appends behind our back; a miss must trigger a rescan.
	other := store.New(tab, "Requests")
	if err := other.Append(ctx, sampleRequest("EXP-20260314-BBBB")); err != nil {
		t.Fatalf("Append via second writer failed: %v", err)
	}

	index, err := st.FindRowByCode(ctx, "EXP-20260314-BBBB")
	if err != nil {
		t.Fatalf("expected rescan to find concurrent append: %v", err)
	}
	if index != 3 {
		t.Fatalf("expected row 3, got %d", index)
	}
}

func TestConditionalUpdateTransitions(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()

	if err := st.Append(ctx, sampleRequest("EXP-20260314-AAAA")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	index, err := st.FindRowByCode(ctx, "EXP-20260314-AAAA")
	if err != nil {
		t.Fatalf("FindRowByCode failed: %v", err)
	}

	decidedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	updated, err := st.ConditionalUpdate(ctx, index, request.StatusPending, func(r *request.Request) {
		r.Status = request.StatusApproved
		r.DeciderTag = "boss#0001"
		r.DecidedAt = decidedAt
	})
	if err != nil {
		t.Fatalf("ConditionalUpdate failed: %v", err)
	}
	if updated.Status != request.StatusApproved || updated.DeciderTag != "boss#0001" {
		t.Fatalf("unexpected updated row: %+v", updated)
	}

	reread, err := st.Read(ctx, index)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if reread.Status != request.StatusApproved || !reread.DecidedAt.Equal(decidedAt) {
		t.Fatalf("persisted row mismatch: %+v", reread)
	}
}

func TestConditionalUpdateConflict(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()

	if err := st.Append(ctx, sampleRequest("EXP-20260314-AAAA")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	index, _ := st.FindRowByCode(ctx, "EXP-20260314-AAAA")

	if _, err := st.ConditionalUpdate(ctx, index, request.StatusPending, func(r *request.Request) {
		r.Status = request.StatusRejected
		r.DecisionReason = "no budget"
	}); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	observed, err := st.ConditionalUpdate(ctx, index, request.StatusPending, func(r *request.Request) {
		r.Status = request.StatusApproved
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if observed == nil || observed.Status != request.StatusRejected {
		t.Fatalf("conflict should report the winning row, got %+v", observed)
	}
}

func TestConcurrentConditionalUpdatesSingleWinner(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()

	if err := st.Append(ctx, sampleRequest("EXP-20260314-AAAA")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	index, _ := st.FindRowByCode(ctx, "EXP-20260314-AAAA")

	const writers = 16
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		status := request.StatusApproved
		if i%2 == 1 {
			status = request.StatusWithdrawn
		}
		go func(target request.Status) {
			_, err := st.ConditionalUpdate(ctx, index, request.StatusPending, func(r *request.Request) {
				r.Status = target
			})
			results <- err
		}(status)
	}

	wins := 0
	for i := 0; i < writers; i++ {
		err := <-results
		switch {
		case err == nil:
			wins++
		case errors.Is(err, store.ErrConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}

	final, err := st.Read(ctx, index)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !final.Status.IsTerminal() {
		t.Fatalf("expected terminal status, got %s", final.Status)
	}
}

func TestStoreMapsTransportFaults(t *testing.T) {
	tab := testsupport.NewMemoryTabular()
	st := store.New(tab, "Requests")
	ctx := context.Background()
	if err := st.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := st.Append(ctx, sampleRequest("EXP-20260314-AAAA")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	tab.FailOp = func(op, title string) error {
		if op == "column" {
			return fmt.Errorf("rate limit exceeded")
		}
		return nil
	}

	_, err := st.FindRowByCode(ctx, "EXP-20260314-BBBB")
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on transport fault, got %v", err)
	}
}

func TestListSkipsMalformedRows(t *testing.T) {
	st, tab := newStore(t)
	ctx := context.Background()

	if err := st.Append(ctx, sampleRequest("EXP-20260314-AAAA")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	// A human edited the sheet and left a stray row.
	if err := tab.AppendRow(ctx, "Requests", []string{"", "junk"}); err != nil {
		t.Fatalf("append junk: %v", err)
	}
	if err := st.Append(ctx, sampleRequest("EXP-20260314-BBBB")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	items, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(items))
	}
}
