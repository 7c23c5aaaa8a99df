package logs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"payloadseed/internal/logging"
)

// Record is one decoded run log line.
type Record struct {
	Time      time.Time      `json:"ts"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	Component string         `json:"component,omitempty"`
	Stage     string         `json:"stage,omitempty"`
	ItemIndex *int           `json:"item_index,omitempty"`
	EventType string         `json:"event_type,omitempty"`
	Fields    map[string]any `json:"-"`
}

var knownKeys = map[string]struct{}{
	"ts": {}, "level": {}, "msg": {},
	logging.FieldComponent: {}, logging.FieldStage: {}, logging.FieldItemIndex: {}, logging.FieldEventType: {},
}

// ParseRecord decodes a JSON log line. Keys without a dedicated field land
// in Fields.
func ParseRecord(line string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return Record{}, fmt.Errorf("decode log line: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{}, fmt.Errorf("decode log line: %w", err)
	}
	for key, value := range raw {
		if _, ok := knownKeys[key]; ok {
			continue
		}
		if rec.Fields == nil {
			rec.Fields = make(map[string]any)
		}
		rec.Fields[key] = value
	}
	return rec, nil
}

// Filter selects records. Empty fields match everything.
type Filter struct {
	MinLevel  string
	Stage     string
	EventType string
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec Record) bool {
	if f.MinLevel != "" {
		want, ok := levelRank[strings.ToLower(f.MinLevel)]
		if ok && levelRank[strings.ToLower(rec.Level)] < want {
			return false
		}
	}
	if f.Stage != "" && !strings.EqualFold(rec.Stage, f.Stage) {
		return false
	}
	if f.EventType != "" && rec.EventType != f.EventType {
		return false
	}
	return true
}

// Format renders rec as a single console line.
func (r Record) Format() string {
	var b strings.Builder
	b.WriteString(r.Time.Local().Format("2006-01-02 15:04:05"))
	b.WriteByte(' ')
	b.WriteString(strings.ToUpper(r.Level))
	if r.Component != "" {
		b.WriteString(" " + r.Component + ":")
	}
	idx := ""
	if r.ItemIndex != nil {
		idx = fmt.Sprint(*r.ItemIndex)
	}
	if subject := logging.FormatSubject(r.Stage, idx); subject != "" {
		b.WriteString(" " + subject + " ·")
	}
	b.WriteString(" " + r.Message)
	if errText, ok := r.Fields["error"].(string); ok && errText != "" {
		b.WriteString(" error=" + errText)
	}
	return b.String()
}
