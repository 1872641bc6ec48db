// Package id generates the identifiers exchanged with the rules engine.
//
// The engine keys users, battles, requests and response versions by UUID, so
// every id is a random (version 4) UUID rendered in its canonical form.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator produces fresh identifiers. Tests inject a deterministic one.
type Generator func() uuid.UUID

// New returns a random version 4 UUID.
func New() uuid.UUID {
	return uuid.New()
}

// Sequence returns a Generator producing deterministic UUIDs derived from
// seed and an incrementing counter. Integration runs use it so request ids
// line up across repeated runs.
func Sequence(seed string) Generator {
	namespace := uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.TrimSpace(seed)))
	counter := 0
	return func() uuid.UUID {
		counter++
		return uuid.NewSHA1(namespace, []byte(fmt.Sprintf("%d", counter)))
	}
}

// Parse validates and parses a textual UUID.
func Parse(value string) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, fmt.Errorf("id is required")
	}
	parsed, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse id %q: %w", value, err)
	}
	return parsed, nil
}

// Ptr returns a pointer to a copy of value, for optional wire fields.
func Ptr(value uuid.UUID) *uuid.UUID {
	return &value
}
