package encoding

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// RawMessage is a raw encoded JSON value
type RawMessage = json.RawMessage

// MarshalJSON marshals data without trailing newline or indentation
func MarshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndentJSON marshals data for human consumption (CLI output)
func MarshalIndentJSON(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// UnmarshalJSON unmarshals data into v
func UnmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// IsNull reports whether data is empty or the JSON literal null
func IsNull(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
