package client

import (
	"bytes"
	"encoding/json"
)

// payloadKind tags the shape of a response body.
type payloadKind int

const (
	kindEmpty payloadKind = iota
	kindArray
	kindData    // {"data": ...}
	kindContent // {"content": [...]}, paged list
	kindOther
)

// payload is a decoded response body with its shape resolved.
type payload struct {
	kind payloadKind
	body json.RawMessage // the unwrapped value
}

// classify resolves the shape of raw. A "data" member wins over "content".
func classify(raw []byte) payload {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return payload{kind: kindEmpty}
	}
	switch trimmed[0] {
	case '[':
		return payload{kind: kindArray, body: trimmed}
	case '{':
		var env map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &env); err == nil {
			if d, ok := env["data"]; ok {
				return payload{kind: kindData, body: d}
			}
			if c, ok := env["content"]; ok && isArray(c) {
				return payload{kind: kindContent, body: c}
			}
		}
	}
	return payload{kind: kindOther, body: trimmed}
}

// unwrap applies the response normalization every request goes through:
// arrays verbatim, {data: X} to X, anything else verbatim.
func unwrap(raw []byte) json.RawMessage {
	p := classify(raw)
	switch p.kind {
	case kindEmpty:
		return nil
	case kindContent:
		return bytes.TrimSpace(raw)
	default:
		return p.body
	}
}

// listBody returns the array inside raw for list endpoints. It accepts a
// bare array, {data: [...]} and {content: [...]}; ok is false otherwise.
func listBody(raw []byte) (json.RawMessage, bool) {
	p := classify(raw)
	switch p.kind {
	case kindArray, kindContent:
		return p.body, true
	case kindData:
		if isArray(p.body) {
			return p.body, true
		}
		// {data: {content: [...]}}
		if inner := classify(p.body); inner.kind == kindContent {
			return inner.body, true
		}
	}
	return nil, false
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
