package id

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingCodePattern = regexp.MustCompile(`^[0-9A-Z]{8}$`)

func TestGenerate_Format(t *testing.T) {
	id, err := Generate("sse")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "sse-"))
	assert.Len(t, id, len("sse")+1+21)
}

func TestMustGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	for range 100 {
		id := MustGenerate("sse")
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}
}

func TestBookingCode_Format(t *testing.T) {
	for range 200 {
		code, err := BookingCode(nil)
		require.NoError(t, err)
		assert.Regexp(t, bookingCodePattern, code)
	}
}

func TestBookingCode_RedrawsTakenCodes(t *testing.T) {
	calls := 0
	taken := func(string) bool {
		calls++
		return calls < 3
	}

	code, err := BookingCode(taken)
	require.NoError(t, err)
	assert.Regexp(t, bookingCodePattern, code)
	assert.Equal(t, 3, calls)
}

func TestBookingCode_Exhausted(t *testing.T) {
	_, err := BookingCode(func(string) bool { return true })
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestBookingCode_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		code, err := BookingCode(func(c string) bool { return seen[c] })
		require.NoError(t, err)
		assert.False(t, seen[code])
		seen[code] = true
	}
}
