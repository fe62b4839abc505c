package testsupport

import (
	"context"
	"fmt"
	"sync"

	"payflow/internal/notify"
)

// RecordingAnnouncer captures announced events for assertions and hands out
// sequential posting references.
type RecordingAnnouncer struct {
	mu     sync.Mutex
	events []notify.Event
	refs   int

	// Fail, when set, makes every Announce call return this error.
	Fail error
}

// NewRecordingAnnouncer builds an empty recorder.
func NewRecordingAnnouncer() *RecordingAnnouncer {
	return &RecordingAnnouncer{}
}

// Announce implements notify.Announcer.
func (a *RecordingAnnouncer) Announce(_ context.Context, event notify.Event) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Fail != nil {
		return "", a.Fail
	}
	a.events = append(a.events, event)
	if event.Audience == notify.AudienceReview && event.Kind == notify.KindPostedForReview {
		a.refs++
		return fmt.Sprintf("posting-%d", a.refs), nil
	}
	return "", nil
}

// Events returns a copy of everything announced so far.
func (a *RecordingAnnouncer) Events() []notify.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]notify.Event(nil), a.events...)
}

// KindsFor returns the announced kinds for one request code, in order.
func (a *RecordingAnnouncer) KindsFor(code string) []notify.Kind {
	a.mu.Lock()
	defer a.mu.Unlock()
	var kinds []notify.Kind
	for _, event := range a.events {
		if event.Request != nil && event.Request.Code == code {
			kinds = append(kinds, event.Kind)
		}
	}
	return kinds
}
