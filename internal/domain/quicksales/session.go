package quicksales

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BusinessDateLayout is the storage format of a session's calendar day
const BusinessDateLayout = "2006-01-02"

// BusinessDate returns the calendar day of t in the store's location
func BusinessDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(BusinessDateLayout)
}

// SessionStatus is the lifecycle state of a session: OPEN until closed once, then CLOSED forever
type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "OPEN"
	SessionStatusClosed SessionStatus = "CLOSED"
)

// Session is one day's open batch of quick-sale lines for a scope (terminal or operator).
// TotalLines and TotalAmount are running aggregates maintained on every line change.
type Session struct {
	shared.BaseAggregateRoot
	Scope        string
	BusinessDate string
	Status       SessionStatus
	OpenedAt     time.Time
	OpenedBy     *uuid.UUID
	ClosedAt     *time.Time
	ClosedBy     *uuid.UUID
	Note         string
	TotalLines   int64
	TotalAmount  decimal.Decimal
	InvoiceID    *uuid.UUID
	RequestID    string
}

// NewSession opens a session for scope on businessDate
func NewSession(scope, businessDate string, openedBy uuid.UUID, requestID string, now time.Time) (*Session, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" || len(scope) > 64 {
		return nil, shared.NewInvalidInputError("Session scope must be 1-64 characters")
	}
	if _, err := time.Parse(BusinessDateLayout, businessDate); err != nil {
		return nil, shared.NewInvalidInputError("Business date %q is not YYYY-MM-DD", businessDate)
	}
	s := &Session{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		Scope:             scope,
		BusinessDate:      businessDate,
		Status:            SessionStatusOpen,
		OpenedAt:          now,
		TotalAmount:       decimal.Zero,
		RequestID:         requestID,
	}
	if openedBy != uuid.Nil {
		s.OpenedBy = &openedBy
	}
	return s, nil
}

// IsOpen reports whether lines may still be added
func (s *Session) IsOpen() bool {
	return s.Status == SessionStatusOpen
}

// IsStale reports whether the session is still open from a day before today
func (s *Session) IsStale(today string) bool {
	return s.IsOpen() && s.BusinessDate < today
}

// IsEmpty reports whether the session has no lines
func (s *Session) IsEmpty() bool {
	return s.TotalLines == 0
}

// Close transitions OPEN to CLOSED. invoiceID is nil for an empty session.
func (s *Session) Close(closedBy uuid.UUID, note string, invoiceID *uuid.UUID, now time.Time) error {
	if !s.IsOpen() {
		return shared.ErrInvalidState.WithMessage("Session %s is already closed", s.ID)
	}
	s.Status = SessionStatusClosed
	s.ClosedAt = &now
	if closedBy != uuid.Nil {
		s.ClosedBy = &closedBy
	}
	s.Note = strings.TrimSpace(note)
	s.InvoiceID = invoiceID
	s.Touch(now)
	s.IncrementVersion()
	return nil
}

// ApplyLine folds a new line into the in-memory aggregates
func (s *Session) ApplyLine(l *Line) {
	s.TotalLines++
	s.TotalAmount = s.TotalAmount.Add(l.LineTotal)
}

// RevertLine removes a deleted line from the in-memory aggregates
func (s *Session) RevertLine(l *Line) {
	s.TotalLines--
	s.TotalAmount = s.TotalAmount.Sub(l.LineTotal)
}
