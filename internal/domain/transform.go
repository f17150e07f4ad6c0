package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Report message headers.
const (
	HeaderQueryID     = "query_id"
	HeaderGeneratedAt = "generated_at"
)

// ParseRawEvent decodes a query message. Unknown fields are rejected so typos
// in optional settings fail loudly instead of silently using defaults. A query
// without an ID takes the message key, or else a hash of the payload.
func ParseRawEvent(raw RawEvent) (Query, error) {
	dec := json.NewDecoder(bytes.NewReader(raw.Value))
	dec.DisallowUnknownFields()

	var q Query
	if err := dec.Decode(&q); err != nil {
		return Query{}, fmt.Errorf("%w: parse query message: %w", ErrInvalidQuery, err)
	}
	if q.ID == "" {
		q.ID = strings.TrimSpace(string(raw.Key))
	}
	if q.ID == "" {
		q.ID = generateID(raw.Value)
	}
	return q, nil
}

// generateID derives a stable query ID from the message payload, so
// reprocessing the same message produces the same ID.
func generateID(payload []byte) string {
	hash := sha256.Sum256(payload)
	return "query-" + hex.EncodeToString(hash[:8])
}

// SerializeReport encodes a report as an output message keyed by its query ID.
func SerializeReport(r Report) (OutputEvent, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize report: %w", err)
	}
	key := r.QueryID
	if key == "" {
		key = r.ID
	}
	return OutputEvent{
		Key:   []byte(key),
		Value: data,
		Headers: map[string]string{
			HeaderQueryID:     r.QueryID,
			HeaderGeneratedAt: r.GeneratedAt.Format(time.RFC3339),
		},
	}, nil
}
