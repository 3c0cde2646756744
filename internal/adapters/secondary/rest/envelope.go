package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// The backend answers either with a raw body or wrapped as
// {"success": true, "data": ...}. unwrap accepts both.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func unwrap(raw []byte, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Success != nil && len(env.Data) > 0 {
			trimmed = env.Data
		}
	}
	return json.Unmarshal(trimmed, out)
}

// ident reads either Mongo-style "_id" or plain "id".
type ident struct {
	ID      string `json:"id,omitempty"`
	MongoID string `json:"_id,omitempty"`
}

func (i ident) value() string {
	if i.MongoID != "" {
		return i.MongoID
	}
	return i.ID
}

// flexTime accepts RFC 3339 timestamps, plain dates and empty strings.
type flexTime struct{ time.Time }

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised time %q", s)
}

func (t flexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
