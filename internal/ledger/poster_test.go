package ledger_test

import (
	"context"
	"testing"
	"time"

	"payflow/internal/ledger"
	"payflow/internal/request"
	"payflow/internal/testsupport"
)

func approvedRequest() *request.Request {
	return &request.Request{
		Code:         "EXP-20260314-AAAA",
		CreatedAt:    time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		RequesterTag: "lan#0421",
		Amount:       750000,
		Purpose:      request.PurposeRepair,
		Note:         "printer service",
		EvidenceRefs: []string{"https://files.example/receipt.png"},
		Status:       request.StatusApproved,
		DeciderTag:   "boss#0001",
		DecidedAt:    time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}
}

func TestPostCreatesPeriodTable(t *testing.T) {
	tab := testsupport.NewMemoryTabular()
	poster := ledger.NewPoster(tab)

	entry := ledger.FromRequest(approvedRequest())
	if err := poster.Post(context.Background(), entry); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	if !tab.HasTable("2026-03") {
		t.Fatal("expected period table 2026-03")
	}
	rows := tab.TableRows("2026-03")
	if len(rows) != 2 {
		t.Fatalf("expected header plus one entry, got %d rows", len(rows))
	}
	if rows[0][0] != "datetime" || rows[0][6] != "code" {
		t.Fatalf("unexpected header: %v", rows[0])
	}

	got := rows[1]
	if got[0] != "2026-03-14T10:30:00Z" {
		t.Errorf("datetime = %q", got[0])
	}
	if got[1] != ledger.KindExpense {
		t.Errorf("kind = %q", got[1])
	}
	if got[2] != "750000" || got[3] != "repair" {
		t.Errorf("amount/purpose = %q/%q", got[2], got[3])
	}
	if got[6] != "EXP-20260314-AAAA" {
		t.Errorf("code = %q", got[6])
	}
}

func TestPostReusesExistingPeriodTable(t *testing.T) {
	tab := testsupport.NewMemoryTabular()
	poster := ledger.NewPoster(tab)
	ctx := context.Background()

	first := ledger.FromRequest(approvedRequest())
	if err := poster.Post(ctx, first); err != nil {
		t.Fatalf("first Post failed: %v", err)
	}

	second := first
	second.RequestCode = "EXP-20260320-BBBB"
	second.Timestamp = time.Date(2026, 3, 20, 15, 0, 0, 0, time.UTC)
	if err := poster.Post(ctx, second); err != nil {
		t.Fatalf("second Post failed: %v", err)
	}

	rows := tab.TableRows("2026-03")
	if len(rows) != 3 {
		t.Fatalf("expected both entries in one period table, got %d rows", len(rows))
	}
}

func TestPeriodKeyNormalizesToUTC(t *testing.T) {
	// 2026-04-01 06:00 +07:00 is still March in UTC.
	local := time.Date(2026, 4, 1, 6, 0, 0, 0, time.FixedZone("ICT", 7*3600))
	if key := ledger.PeriodKey(local); key != "2026-03" {
		t.Fatalf("PeriodKey = %q, want 2026-03", key)
	}
}

func TestPostRequiresRequestCode(t *testing.T) {
	poster := ledger.NewPoster(testsupport.NewMemoryTabular())
	if err := poster.Post(context.Background(), ledger.Entry{Timestamp: time.Now()}); err == nil {
		t.Fatal("expected error for entry without request code")
	}
}
