package inventory

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/grocerypos/backend/internal/domain/shared"
)

// MovementCursor marks the last movement of a page in (created_at DESC, id DESC) order
type MovementCursor struct {
	CreatedAt time.Time
	ID        int64
}

// CursorAfter returns the cursor that continues after m
func CursorAfter(m StockMovement) MovementCursor {
	return MovementCursor{CreatedAt: m.CreatedAt, ID: m.ID}
}

// Encode renders the cursor as an opaque token
func (c MovementCursor) Encode() string {
	raw := strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + ":" + strconv.FormatInt(c.ID, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseMovementCursor decodes a token produced by Encode. An empty token yields nil.
func ParseMovementCursor(token string) (*MovementCursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, shared.NewInvalidInputError("Malformed cursor")
	}
	nanos, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, shared.NewInvalidInputError("Malformed cursor")
	}
	n, err1 := strconv.ParseInt(nanos, 10, 64)
	i, err2 := strconv.ParseInt(id, 10, 64)
	if err1 != nil || err2 != nil {
		return nil, shared.NewInvalidInputError("Malformed cursor %q", token)
	}
	return &MovementCursor{CreatedAt: time.Unix(0, n).UTC(), ID: i}, nil
}
