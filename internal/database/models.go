package database

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Creator is a content creator whose replies are being drafted.
type Creator struct {
	ID            string    `db:"id"             json:"id"`
	Name          string    `db:"name"           json:"name"`
	Niches        TagList   `db:"niches"         json:"niches"`
	Persona       TagList   `db:"persona"        json:"persona"`
	EmojisEnabled bool      `db:"emojis_enabled" json:"emojis_enabled"`
	EmojisUsed    TagList   `db:"emojis_used"    json:"emojis_used"`
	NSFW          bool      `db:"nsfw"           json:"nsfw"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"     json:"updated_at"`
}

// Fan is the person a creator is chatting with.
type Fan struct {
	ID            string    `db:"id"             json:"id"`
	Name          string    `db:"name"           json:"name"`
	LifetimeSpend float64   `db:"lifetime_spend" json:"lifetime_spend"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"     json:"updated_at"`
}

// SystemPrompt is an instruction template containing {{placeholders}}.
type SystemPrompt struct {
	ID           string    `db:"id"            json:"id"`
	Name         string    `db:"name"          json:"name"`
	SystemPrompt string    `db:"system_prompt" json:"system_prompt"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"    json:"updated_at"`
}

// Message senders.
const (
	SenderFan     = "fan"
	SenderCreator = "creator"
)

// ChatMessage is one stored message between a creator and a fan.
type ChatMessage struct {
	ID        string    `db:"id"         json:"id"`
	FanID     string    `db:"fan_id"     json:"fan_id"`
	CreatorID string    `db:"creator_id" json:"creator_id"`
	Sender    string    `db:"sender"     json:"sender"`
	Content   string    `db:"content"    json:"content"`
	Metadata  JSONMap   `db:"metadata"   json:"metadata,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreatorUpdate holds the fields of a partial creator update. Nil fields are
// left untouched.
type CreatorUpdate struct {
	Name          *string  `json:"name"`
	Niches        *TagList `json:"niches"`
	Persona       *TagList `json:"persona"`
	EmojisEnabled *bool    `json:"emojis_enabled"`
	EmojisUsed    *TagList `json:"emojis_used"`
	NSFW          *bool    `json:"nsfw"`
}

// FanUpdate holds the fields of a partial fan update.
type FanUpdate struct {
	Name          *string  `json:"name"`
	LifetimeSpend *float64 `json:"lifetime_spend" validate:"omitempty,gte=0"`
}

// SystemPromptUpdate holds the fields of a partial system prompt update.
type SystemPromptUpdate struct {
	Name         *string `json:"name"`
	SystemPrompt *string `json:"system_prompt"`
}

// TagList is a list of short labels stored as a JSON array. It decodes from
// either a JSON array of strings or a single JSON string.
type TagList []string

// UnmarshalJSON accepts `["a","b"]`, `"a"` and `null`.
func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*t = nil
			return nil
		}
		*t = TagList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("tag list must be a string or an array of strings: %w", err)
	}
	*t = list
	return nil
}

// Scan implements sql.Scanner.
func (t *TagList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = nil
		return nil
	case string:
		return t.UnmarshalJSON([]byte(v))
	case []byte:
		return t.UnmarshalJSON(v)
	default:
		return fmt.Errorf("cannot scan %T into TagList", src)
	}
}

// Value implements driver.Valuer.
func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// JSONMap is a free-form JSON object column.
type JSONMap map[string]any

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, (*map[string]any)(m))
}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
