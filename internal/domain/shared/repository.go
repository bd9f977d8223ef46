package shared

// CursorPage is one page of a keyset-paginated listing. NextCursor is only
// meaningful when HasMore is true.
type CursorPage[T any, C any] struct {
	Items      []T  `json:"items"`
	NextCursor C    `json:"next_cursor"`
	HasMore    bool `json:"has_more"`
}

// ClampLimit bounds a requested page size to [1, max], using def when the request is <= 0
func ClampLimit(requested, def, max int) int {
	switch {
	case requested <= 0:
		return def
	case requested > max:
		return max
	default:
		return requested
	}
}
