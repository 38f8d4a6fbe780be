package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 250
)

// Pagination is a keyset page request. PageToken is opaque to callers.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Size clamps the requested page size to [1, MaxPageSize].
func (p Pagination) Size() int {
	switch {
	case p.PageSize <= 0:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token"`
	HasMore       bool   `json:"has_more"`
}

// Cursor points at the last row of a page ordered by (created_at, id) descending.
type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type cursorToken struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

var ErrInvalidCursor = errors.New("pagination: invalid cursor")

// EncodeCursor returns a URL-safe token for c.
func EncodeCursor(c Cursor) (string, error) {
	b, err := json.Marshal(cursorToken{
		ID:        c.ID.String(),
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeCursor parses a token produced by EncodeCursor. An empty token
// yields a nil cursor.
func DecodeCursor(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var raw cursorToken
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, ErrInvalidCursor
	}
	id, err := snowflake.ParseString(strings.TrimSpace(raw.ID))
	if err != nil || id == 0 {
		return nil, ErrInvalidCursor
	}
	createdAt, err := time.Parse(time.RFC3339Nano, raw.CreatedAt)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &Cursor{ID: id, CreatedAt: createdAt}, nil
}

// Paginate trims a result fetched with limit+1 rows and builds its page
// info. cursorOf returns the cursor of a row.
func Paginate[T any](items []*T, limit int, cursorOf func(*T) Cursor) ([]*T, PageInfo) {
	if len(items) <= limit {
		return items, PageInfo{}
	}
	items = items[:limit]
	token, err := EncodeCursor(cursorOf(items[len(items)-1]))
	if err != nil {
		return items, PageInfo{}
	}
	return items, PageInfo{NextPageToken: token, HasMore: true}
}
