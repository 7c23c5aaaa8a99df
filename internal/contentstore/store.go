package contentstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID identifies a stored document. Payload uses numeric ids on SQL adapters
// and string ids on MongoDB; both are carried as strings.
type ID string

// String returns the id as text.
func (id ID) String() string { return string(id) }

// Numeric reports whether the id is a canonical base-10 integer, one that
// is also a valid JSON number. "007" and "+5" are not numeric.
func (id ID) Numeric() bool {
	if id == "" {
		return false
	}
	n, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == string(id)
}

// MarshalJSON encodes numeric ids as JSON numbers and everything else as
// strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.Numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// UserInput carries the credentials of a bootstrap user.
type UserInput struct {
	Email    string
	Password string
}

// MediaInput describes a media document and the staged file behind it.
type MediaInput struct {
	Alt      string
	FilePath string
	Filename string
	MimeType string
	Source   string
}

// MediaRecord is a created media document.
type MediaRecord struct {
	ID       ID     `json:"id"`
	Alt      string `json:"alt"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"filesize"`
}

// EntityInput describes a centre document. Image references must point at
// media that already exist.
type EntityInput struct {
	Name          string
	FeaturedImage ID
	Logo          ID
	Images        []ID
}

// EntityRecord is a created centre document.
type EntityRecord struct {
	ID            ID     `json:"id"`
	Name          string `json:"name"`
	FeaturedImage ID     `json:"featuredImage"`
	Logo          ID     `json:"logo"`
	Images        []ID   `json:"images"`
}

// Store is the content store contract used by the seeding pipeline.
type Store interface {
	// Ping confirms the store is reachable.
	Ping(ctx context.Context) error
	// EnsureUser creates the user when missing. created reports whether a
	// new user was written.
	EnsureUser(ctx context.Context, user UserInput) (created bool, err error)
	CreateMedia(ctx context.Context, media MediaInput) (MediaRecord, error)
	CreateEntity(ctx context.Context, entity EntityInput) (EntityRecord, error)
	Close() error
}
