package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"payflow/internal/evidence"
	"payflow/internal/ledger"
	"payflow/internal/logging"
	"payflow/internal/notify"
	"payflow/internal/request"
	"payflow/internal/store"
)

const codeGenerationAttempts = 5

// Store is the request persistence surface the engine drives.
type Store interface {
	Append(ctx context.Context, req *request.Request) error
	FindRowByCode(ctx context.Context, code string) (int, error)
	Read(ctx context.Context, index int) (*request.Request, error)
	ConditionalUpdate(ctx context.Context, index int, expected request.Status, mutate func(*request.Request)) (*request.Request, error)
	GetByCode(ctx context.Context, code string) (*request.Request, error)
	List(ctx context.Context) ([]*request.Request, error)
}

// Ledger posts disbursement entries for approved requests.
type Ledger interface {
	Post(ctx context.Context, entry ledger.Entry) error
}

// Engine owns the request state machine. It validates transitions, enforces
// authorization, orchestrates store writes and ledger posting, and emits
// notification events. Every inbound event may run concurrently with others
// touching the same code; correctness rests on the store's conditional-update
// discipline, not on locks held here.
type Engine struct {
	store        Store
	ledger       Ledger
	announcer    notify.Announcer
	verifier     evidence.Verifier
	codes        *request.Generator
	logger       *slog.Logger
	approverRole string
	maxEvidence  int
	now          func() time.Time
}

// Option configures optional Engine behavior.
type Option func(*Engine)

// WithClock overrides the engine's time source, including the date embedded
// in generated request codes. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
		e.codes = e.codes.WithClock(now)
	}
}

// WithCodeGenerator overrides the request code generator.
func WithCodeGenerator(gen *request.Generator) Option {
	return func(e *Engine) { e.codes = gen }
}

// Config carries the policy knobs the engine needs.
type Config struct {
	ApproverRole string
	CodePrefix   string
	MaxEvidence  int
}

// New constructs a workflow engine.
func New(cfg Config, st Store, poster Ledger, announcer notify.Announcer, verifier evidence.Verifier, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	if announcer == nil {
		announcer = notify.NewAnnouncer(nil)
	}
	maxEvidence := cfg.MaxEvidence
	if maxEvidence <= 0 {
		maxEvidence = 5
	}
	engine := &Engine{
		store:        st,
		ledger:       poster,
		announcer:    announcer,
		verifier:     verifier,
		codes:        request.NewGenerator(cfg.CodePrefix),
		logger:       logger,
		approverRole: cfg.ApproverRole,
		maxEvidence:  maxEvidence,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// SubmitInput is one inbound submission event from the front end.
type SubmitInput struct {
	RequesterID   string
	RequesterTag  string
	OriginSurface string
	Amount        int64
	Purpose       string
	Note          string
	EvidenceRefs  []string
}

// SubmitResult reports a persisted submission. Announced is false when the
// review-surface posting failed; the PENDING row exists regardless.
type SubmitResult struct {
	Code      string
	Request   *request.Request
	Announced bool
}

// Submit validates a new request, persists it as PENDING, and posts it for
// review. The row is appended before any announcement so a crash between the
// two leaves a recoverable record; a failed announcement is reported as
// ErrDeliveryFailed alongside the result, never rolled back.
func (e *Engine) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidEvidence)
	}
	purpose, ok := request.ParsePurpose(in.Purpose)
	if !ok {
		return nil, fmt.Errorf("%w: unknown purpose %q", ErrInvalidEvidence, in.Purpose)
	}
	if len(in.EvidenceRefs) == 0 {
		return nil, fmt.Errorf("%w: at least one evidence ref is required", ErrInvalidEvidence)
	}
	if len(in.EvidenceRefs) > e.maxEvidence {
		return nil, fmt.Errorf("%w: at most %d evidence refs allowed", ErrInvalidEvidence, e.maxEvidence)
	}
	if e.verifier != nil {
		for _, ref := range in.EvidenceRefs {
			if err := e.verifier.VerifyImage(ctx, ref); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidEvidence, err)
			}
		}
	}

	code, err := e.freshCode(ctx)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithRequestCode(ctx, code)
	log := logging.FromContext(ctx, e.logger)

	req := &request.Request{
		Code:          code,
		CreatedAt:     e.now().UTC(),
		RequesterID:   in.RequesterID,
		RequesterTag:  in.RequesterTag,
		OriginSurface: in.OriginSurface,
		Amount:        in.Amount,
		Purpose:       purpose,
		Note:          strings.TrimSpace(in.Note),
		EvidenceRefs:  append([]string(nil), in.EvidenceRefs...),
		Status:        request.StatusPending,
	}

	if err := e.store.Append(ctx, req); err != nil {
		return nil, e.storeFault("append request", err)
	}
	log.Info("request appended",
		slog.String("requester", req.RequesterTag),
		slog.Int64("amount", req.Amount),
		slog.String("purpose", string(req.Purpose)))

	result := &SubmitResult{Code: code, Request: req}

	ref, announceErr := e.announcer.Announce(ctx, notify.Event{
		Kind:     notify.KindPostedForReview,
		Audience: notify.AudienceReview,
		Request:  req,
	})
	if announceErr != nil {
		log.Warn("review posting failed", logging.Error(announceErr))
		return result, fmt.Errorf("%w: %v", ErrDeliveryFailed, announceErr)
	}
	result.Announced = true

	if ref != "" {
		e.recordPostingRef(ctx, req, ref)
	}

	if _, err := e.announcer.Announce(ctx, notify.Event{
		Kind:     notify.KindPostedForReview,
		Audience: notify.AudienceOrigin,
		Request:  req,
	}); err != nil {
		log.Warn("origin confirmation failed", logging.Error(err))
	}

	return result, nil
}

func (e *Engine) freshCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < codeGenerationAttempts; attempt++ {
		code, err := e.codes.Generate()
		if err != nil {
			return "", fmt.Errorf("generate request code: %w", err)
		}
		_, err = e.store.FindRowByCode(ctx, code)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return code, nil
		case err != nil:
			return "", e.storeFault("check code uniqueness", err)
		default:
			// Collision. Regenerate rather than ever overwriting a row.
			e.logger.Warn("request code collision", slog.String("code", code))
		}
	}
	return "", fmt.Errorf("exhausted %d code generation attempts", codeGenerationAttempts)
}

func (e *Engine) recordPostingRef(ctx context.Context, req *request.Request, ref string) {
	log := logging.FromContext(ctx, e.logger)
	index, err := e.store.FindRowByCode(ctx, req.Code)
	if err != nil {
		log.Warn("posting ref not recorded", logging.Error(err))
		return
	}
	updated, err := e.store.ConditionalUpdate(ctx, index, request.StatusPending, func(r *request.Request) {
		r.PostingRef = ref
	})
	if err != nil {
		// A decision may already have raced past us; the ref is cosmetic.
		log.Warn("posting ref not recorded", logging.Error(err))
		return
	}
	req.PostingRef = updated.PostingRef
}

// Outcome is the approver's verdict on a pending request.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

// ParseOutcome converts a string into a known Outcome.
func ParseOutcome(value string) (Outcome, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "approved", "approve":
		return OutcomeApproved, true
	case "rejected", "reject":
		return OutcomeRejected, true
	default:
		return "", false
	}
}

// DecideInput is one inbound decision event.
type DecideInput struct {
	Code     string
	ActorID  string
	ActorTag string
	Roles    []string
	Outcome  Outcome
	Reason   string
}

// DecisionResult reports a terminal transition.
type DecisionResult struct {
	Code         string
	Status       request.Status
	DeciderTag   string
	DecidedAt    time.Time
	LedgerPosted bool
}

// Decide executes an approve or reject transition. Losing a race against
// another decision (or a withdrawal) yields AlreadyDecidedError, which
// callers treat as a settled outcome, not a fault. On approval the ledger is
// posted exactly once before returning; a posting failure leaves the request
// APPROVED and surfaces as a non-fatal ErrLedgerPosting alongside the result.
func (e *Engine) Decide(ctx context.Context, in DecideInput) (*DecisionResult, error) {
	if !e.authorized(in.Roles) {
		return nil, fmt.Errorf("%w: role %q required to decide", ErrUnauthorized, e.approverRole)
	}
	reason := strings.TrimSpace(in.Reason)
	var target request.Status
	switch in.Outcome {
	case OutcomeApproved:
		target = request.StatusApproved
		reason = ""
	case OutcomeRejected:
		if reason == "" {
			return nil, fmt.Errorf("%w: rejection must carry a reason", ErrReasonRequired)
		}
		target = request.StatusRejected
	default:
		return nil, fmt.Errorf("unknown outcome %q", in.Outcome)
	}

	ctx = logging.WithRequestCode(ctx, in.Code)
	log := logging.FromContext(ctx, e.logger)

	index, _, err := e.locatePending(ctx, in.Code)
	if err != nil {
		return nil, err
	}

	decidedAt := e.now().UTC()
	updated, err := e.store.ConditionalUpdate(ctx, index, request.StatusPending, func(r *request.Request) {
		r.Status = target
		r.DeciderTag = in.ActorTag
		r.DecisionReason = reason
		r.DecidedAt = decidedAt
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Someone else's decision observed PENDING first.
			return nil, &AlreadyDecidedError{Status: updated.Status}
		}
		return nil, e.storeFault("record decision", err)
	}
	log.Info("request decided",
		slog.String("status", string(updated.Status)),
		slog.String("decider", updated.DeciderTag))

	result := &DecisionResult{
		Code:       updated.Code,
		Status:     updated.Status,
		DeciderTag: updated.DeciderTag,
		DecidedAt:  updated.DecidedAt,
	}

	var warning error
	if target == request.StatusApproved {
		if err := e.ledger.Post(ctx, ledger.FromRequest(updated)); err != nil {
			// The decision stands; the ledger can be reconciled from the
			// terminal request record.
			log.Error("ledger posting failed", logging.Error(err))
			warning = fmt.Errorf("%w: %v", ErrLedgerPosting, err)
		} else {
			result.LedgerPosted = true
		}
	}

	kind := notify.KindApproved
	if target == request.StatusRejected {
		kind = notify.KindRejected
	}
	e.announceBoth(ctx, kind, updated, &warning)

	return result, warning
}

// WithdrawInput is one inbound withdrawal event.
type WithdrawInput struct {
	Code        string
	RequesterID string
}

// Withdraw cancels a pending request. Only the original submitter may
// withdraw, and only while the row is still PENDING.
func (e *Engine) Withdraw(ctx context.Context, in WithdrawInput) (*request.Request, error) {
	ctx = logging.WithRequestCode(ctx, in.Code)
	log := logging.FromContext(ctx, e.logger)

	index, current, err := e.locatePending(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if current.RequesterID != in.RequesterID {
		return nil, fmt.Errorf("%w: only the original requester may withdraw", ErrUnauthorized)
	}

	decidedAt := e.now().UTC()
	updated, err := e.store.ConditionalUpdate(ctx, index, request.StatusPending, func(r *request.Request) {
		r.Status = request.StatusWithdrawn
		r.DeciderTag = r.RequesterTag
		r.DecisionReason = request.WithdrawnReason
		r.DecidedAt = decidedAt
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, &AlreadyDecidedError{Status: updated.Status}
		}
		return nil, e.storeFault("record withdrawal", err)
	}
	log.Info("request withdrawn", slog.String("requester", updated.RequesterTag))

	var warning error
	e.announceBoth(ctx, notify.KindWithdrawn, updated, &warning)
	return updated, warning
}

// Get returns the request identified by code.
func (e *Engine) Get(ctx context.Context, code string) (*request.Request, error) {
	req, err := e.store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
		}
		return nil, e.storeFault("load request", err)
	}
	return req, nil
}

// List returns every request in the store, in row order.
func (e *Engine) List(ctx context.Context) ([]*request.Request, error) {
	items, err := e.store.List(ctx)
	if err != nil {
		return nil, e.storeFault("list requests", err)
	}
	return items, nil
}

func (e *Engine) locatePending(ctx context.Context, code string) (int, *request.Request, error) {
	index, err := e.store.FindRowByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil, fmt.Errorf("%w: %s", ErrNotFound, code)
		}
		return 0, nil, e.storeFault("locate request", err)
	}
	current, err := e.store.Read(ctx, index)
	if err != nil {
		return 0, nil, e.storeFault("read request", err)
	}
	if !current.IsPending() {
		return 0, nil, &AlreadyDecidedError{Status: current.Status}
	}
	return index, current, nil
}

func (e *Engine) announceBoth(ctx context.Context, kind notify.Kind, req *request.Request, warning *error) {
	log := logging.FromContext(ctx, e.logger)
	for _, audience := range []notify.Audience{notify.AudienceReview, notify.AudienceOrigin} {
		if _, err := e.announcer.Announce(ctx, notify.Event{Kind: kind, Audience: audience, Request: req}); err != nil {
			log.Warn("announcement failed",
				slog.String("kind", string(kind)),
				slog.String("audience", string(audience)),
				logging.Error(err))
			if *warning == nil {
				*warning = fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
			}
		}
	}
}

func (e *Engine) authorized(roles []string) bool {
	for _, role := range roles {
		if strings.EqualFold(strings.TrimSpace(role), e.approverRole) {
			return true
		}
	}
	return false
}

func (e *Engine) storeFault(op string, err error) error {
	if errors.Is(err, store.ErrUnavailable) {
		return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
