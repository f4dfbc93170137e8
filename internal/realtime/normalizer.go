package realtime

import (
	"encoding/json"
	"strings"
)

// Normalize parses one raw frame into an Event. The boolean result is
// false for frames that cannot be parsed at all; those are dropped by the
// caller without touching any state.
func Normalize(frame []byte) (Event, bool) {
	text := strings.TrimSpace(string(frame))
	if text == "" {
		return Event{}, false
	}
	return normalizeText(text, 0)
}

// normalizeText handles one level of wrapping. A JSON-encoded string may
// itself contain a JSON object or an SSE block, so decoding recurses once
// per unwrap with a small depth cap.
func normalizeText(text string, depth int) (Event, bool) {
	if depth > 3 {
		return Event{}, false
	}

	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") || strings.HasPrefix(text, `"`) {
		var decoded any
		if err := json.Unmarshal([]byte(text), &decoded); err != nil {
			return Event{}, false
		}
		switch v := decoded.(type) {
		case string:
			return normalizeText(strings.TrimSpace(v), depth+1)
		case map[string]any:
			return eventFromObject(v), true
		default:
			// JSON array or scalar: no event shape to extract.
			return Event{Type: "message", Kind: KindMessage, Data: map[string]any{"data": v}}, true
		}
	}

	if ev, ok := eventFromSSE(text); ok {
		return ev, true
	}

	// Plain text frame.
	return Event{
		Type:    "message",
		Kind:    KindMessage,
		Payload: Payload{Content: text},
		Data:    map[string]any{"data": text},
	}, true
}

// eventFromSSE parses the `event: <Name>` / `data: <json-or-text>` block
// form. Both fields are required; anything less is not the SSE shape.
func eventFromSSE(text string) (Event, bool) {
	if !strings.HasPrefix(text, "event:") {
		return Event{}, false
	}
	var eventType, data string
	var haveData bool
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			haveData = true
		}
	}
	if eventType == "" || !haveData {
		return Event{}, false
	}

	if strings.HasPrefix(data, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(data), &obj); err == nil {
			ev := eventFromObject(obj)
			ev.Type = eventType
			ev.Kind = KindOf(eventType)
			return ev, true
		}
	}
	return Event{
		Type:    eventType,
		Kind:    KindOf(eventType),
		Payload: Payload{Content: data},
		Data:    map[string]any{"data": data},
	}, true
}

// eventFromObject builds an event from a decoded JSON object. The typed
// payload is produced by a round trip through the struct tags; a payload
// that fails to re-decode still yields a message event carrying the raw
// object.
func eventFromObject(obj map[string]any) Event {
	eventType, _ := obj["event"].(string)
	if eventType == "" {
		eventType, _ = obj["type"].(string)
	}
	if eventType == "" {
		eventType = "message"
	}

	ev := Event{Type: eventType, Kind: KindOf(eventType), Data: obj}
	if raw, err := json.Marshal(obj); err == nil {
		// Field type mismatches degrade to a partially filled payload.
		_ = json.Unmarshal(raw, &ev.Payload)
	}
	return ev
}
