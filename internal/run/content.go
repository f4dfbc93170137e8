package run

import (
	"encoding/json"
	"fmt"
)

// AppendContent merges an incremental content payload into existing
// content. String deltas concatenate; structured payloads are rendered to
// a fenced markdown block and appended. Anything else is formatted with
// the default verb so a malformed delta still produces visible output
// rather than an error.
func AppendContent(existing string, delta any) string {
	switch v := delta.(type) {
	case nil:
		return existing
	case string:
		return existing + v
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return existing + fmt.Sprintf("%v", v)
		}
		return existing + "\n```json\n" + string(b) + "\n```\n"
	}
}

// ContentString returns the payload as a display string without append
// semantics, used when a terminal event overwrites accumulated content
// with the server-authoritative final value.
func ContentString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	default:
		return AppendContent("", c)
	}
}
