package repository

import (
	"encoding/json"
	"time"

	"bilimbagdar/internal/models"
)

// timeFormat is how timestamps are written into rows
const timeFormat = time.RFC3339

// encodeStringList serializes an ordered list into row text. An empty list
// is written as "[]" so a well-formed row never holds an empty cell.
func encodeStringList(list []string) string {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeStringList is the inverse of encodeStringList. Malformed or missing
// text degrades to an empty list, never an error.
func decodeStringList(s string) []string {
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil || list == nil {
		return []string{}
	}
	return list
}

func encodeAttachments(atts []models.Attachment) string {
	if atts == nil {
		atts = []models.Attachment{}
	}
	data, err := json.Marshal(atts)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeAttachments(s string) []models.Attachment {
	var atts []models.Attachment
	if err := json.Unmarshal([]byte(s), &atts); err != nil || atts == nil {
		return []models.Attachment{}
	}
	return atts
}

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
