package reconcile

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// The marker is an HTML comment embedded in every bot review comment so a
// later session can recover the finding's hash from the platform. HTML
// comments render invisibly on the PR page.
const markerPrefix = "ai-review"

var markerPattern = regexp.MustCompile(`<!--\s*` + markerPrefix + `:\s*(\{.*?\})\s*-->`)

type markerPayload struct {
	Hash string `json:"hash"`
}

// BuildMarker renders the hidden marker carrying the finding hash
func BuildMarker(hash string) string {
	payload, _ := json.Marshal(markerPayload{Hash: hash})
	return fmt.Sprintf("<!-- %s: %s -->", markerPrefix, payload)
}

// ExtractHash recovers the finding hash from a comment body. It returns the
// empty string when no parsable marker is present, which callers treat as
// "not one of ours".
func ExtractHash(body string) string {
	m := markerPattern.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	var payload markerPayload
	if err := json.Unmarshal([]byte(m[1]), &payload); err != nil {
		return ""
	}
	return payload.Hash
}
