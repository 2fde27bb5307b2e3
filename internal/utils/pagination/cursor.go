// Package pagination implements opaque keyset tokens for newest-first listings.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidToken = errors.New("invalid pagination token")

// Cursor is the keyset position of the last row a client has seen.
// The next page holds rows strictly older than (Time, ID).
type Cursor struct {
	ID   uint64 `json:"i"`
	AtMs int64  `json:"t"`
}

// At builds the cursor of a row created at t.
func At(id uint64, t time.Time) Cursor {
	return Cursor{ID: id, AtMs: t.UnixMilli()}
}

// IsZero reports whether the cursor points at the first page.
func (c Cursor) IsZero() bool {
	return c.ID == 0 || c.AtMs == 0
}

func (c Cursor) Time() time.Time {
	return time.UnixMilli(c.AtMs).UTC()
}

// Token renders the cursor as an unpadded URL-safe string.
func (c Cursor) Token() string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// Parse reads a token produced by Token. A nil or empty token is the first page.
func Parse(token *string) (Cursor, error) {
	if token == nil || *token == "" {
		return Cursor{}, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(*token)
	if err != nil {
		return Cursor{}, ErrInvalidToken
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil || c.IsZero() {
		return Cursor{}, ErrInvalidToken
	}
	return c, nil
}

// Page trims rows fetched with LIMIT limit+1 down to limit and returns the
// token for the following page. The token is nil when nothing is left.
func Page[T any](rows []T, limit int, key func(T) Cursor) ([]T, *string) {
	if limit <= 0 || len(rows) <= limit {
		return rows, nil
	}
	rows = rows[:limit]
	token := key(rows[limit-1]).Token()
	return rows, &token
}
