package genai

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/hintly/go-hints-backend/internal/resources"
)

// ErrUnparseable is returned when model output cannot be decoded into the
// structured resource format. Callers substitute the deterministic fallback
// rather than surfacing this to clients.
var ErrUnparseable = errors.New("genai: output is not a valid resource list")

// ParseResources decodes model output into the structured resource list.
// The contract is parse-or-fallback: anything that does not strictly decode
// into a non-empty []Resource with usable links yields ErrUnparseable.
//
// Models occasionally wrap JSON in markdown code fences despite instructions;
// a single fenced block is unwrapped before decoding. No other free-text
// extraction is attempted.
func ParseResources(raw string) ([]resources.Resource, error) {
	s := strings.TrimSpace(stripCodeFence(raw))
	if s == "" || !strings.HasPrefix(s, "[") {
		return nil, ErrUnparseable
	}

	dec := json.NewDecoder(strings.NewReader(s))
	dec.DisallowUnknownFields()

	var set []resources.Resource
	if err := dec.Decode(&set); err != nil {
		return nil, ErrUnparseable
	}
	if len(set) == 0 {
		return nil, ErrUnparseable
	}
	for _, r := range set {
		if strings.TrimSpace(r.Topic) == "" || len(r.Links) == 0 {
			return nil, ErrUnparseable
		}
		for _, l := range r.Links {
			if strings.TrimSpace(l.Title) == "" || !strings.HasPrefix(l.URL, "http") {
				return nil, ErrUnparseable
			}
		}
	}
	return set, nil
}

// stripCodeFence removes a single surrounding markdown code fence
// (``` or ```json) when present.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		// Drop a language tag such as "json" on the fence line.
		t = t[i+1:]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
