package quicksales

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionRepository persists sessions and their lines
type SessionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)
	// FindOpenByScope returns the scope's OPEN session of any date, or shared.ErrNotFound
	FindOpenByScope(ctx context.Context, scope string) (*Session, error)
	// FindByScopeAndDate returns the session for one day, or shared.ErrNotFound
	FindByScopeAndDate(ctx context.Context, scope, businessDate string) (*Session, error)
	// Create inserts s. A (scope, business_date) collision yields shared.ErrConcurrentOpenSession.
	Create(ctx context.Context, s *Session) error
	// IncrementTotals adds to the running aggregates only while the session is OPEN.
	// It reports false when the session was not open.
	IncrementTotals(ctx context.Context, sessionID uuid.UUID, lines int64, amount decimal.Decimal) (bool, error)
	// MarkClosed persists the OPEN to CLOSED transition of s, guarded on the stored status
	MarkClosed(ctx context.Context, s *Session) (bool, error)

	InsertLine(ctx context.Context, l *Line) error
	FindLine(ctx context.Context, sessionID uuid.UUID, lineID int64) (*Line, error)
	DeleteLine(ctx context.Context, sessionID uuid.UUID, lineID int64) error
	// FindLines returns up to limit lines with id > afterID in ascending id order
	FindLines(ctx context.Context, sessionID uuid.UUID, afterID int64, limit int) ([]Line, error)
	CountLines(ctx context.Context, sessionID uuid.UUID) (int64, error)
}
