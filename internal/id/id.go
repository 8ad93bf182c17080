// Package id generates identifiers with NanoID.
package id

import (
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// BookingAlphabet is the character set of booking codes.
	BookingAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// BookingLength is the number of characters in a booking code.
	BookingLength = 8

	maxBookingAttempts = 16
)

// ErrExhausted is returned when no unused booking code was found.
var ErrExhausted = errors.New("no unique booking code after retries")

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "sse-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// BookingCode returns an 8 character uppercase alphanumeric code such as "K7Q2M9XA".
// taken reports codes already in use; a colliding code is redrawn up to a bounded
// number of times before ErrExhausted is returned. taken may be nil.
func BookingCode(taken func(string) bool) (string, error) {
	for range maxBookingAttempts {
		code, err := gonanoid.Generate(BookingAlphabet, BookingLength)
		if err != nil {
			return "", fmt.Errorf("generate booking code: %w", err)
		}
		if taken == nil || !taken(code) {
			return code, nil
		}
	}
	return "", ErrExhausted
}
