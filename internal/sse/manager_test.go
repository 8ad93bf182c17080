package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kellerblick/storefront/internal/domain"
	"github.com/kellerblick/storefront/internal/logger"
)

func startManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.EventChan:
		return e
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestEventType_Topic(t *testing.T) {
	assert.Equal(t, "booking", EventBookingCreated.Topic())
	assert.Equal(t, "wishlist", EventWishlistChanged.Topic())
	assert.Equal(t, "heartbeat", EventHeartbeat.Topic())
}

func TestManager_BroadcastFiltersByTopic(t *testing.T) {
	m := startManager(t)

	all, err := m.Connect()
	require.NoError(t, err)
	bookingsOnly, err := m.Connect("booking")
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClientCount())

	m.Emit(NewWishlistChangedEvent([]string{"w1"}))
	m.Emit(NewBookingCreatedEvent(domain.Booking{ID: "K7Q2M9XA", EventID: "E1"}))

	assert.Equal(t, EventWishlistChanged, receive(t, all).Type)
	assert.Equal(t, EventBookingCreated, receive(t, all).Type)

	got := receive(t, bookingsOnly)
	assert.Equal(t, EventBookingCreated, got.Type)
	data, ok := got.Data.(BookingEventData)
	require.True(t, ok)
	assert.Equal(t, "K7Q2M9XA", data.Booking.ID)
}

func TestManager_Disconnect(t *testing.T) {
	m := startManager(t)

	c, err := m.Connect()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(c.ID, "sse-"))

	m.Disconnect(c.ID)
	m.Disconnect(c.ID) // unknown ids are ignored
	assert.Equal(t, 0, m.ClientCount())

	_, open := <-c.Done
	assert.False(t, open)
}

func TestManager_ShutdownDropsLateEvents(t *testing.T) {
	m := startManager(t)
	c, err := m.Connect()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	require.NoError(t, m.Shutdown(ctx))

	m.Emit(NewUIChangedEvent(true, false)) // must not panic
	assert.Equal(t, 0, m.ClientCount())
	_, open := <-c.Done
	assert.False(t, open)
}

func TestForward(t *testing.T) {
	m := startManager(t)
	c, err := m.Connect("wishlist")
	require.NoError(t, err)

	updates := make(chan []string, 1)
	done := make(chan struct{})
	go func() {
		Forward(context.Background(), m, updates, NewWishlistChangedEvent)
		close(done)
	}()

	updates <- []string{"w1", "w2"}
	got := receive(t, c)
	assert.Equal(t, WishlistEventData{Items: []string{"w1", "w2"}, Count: 2}, got.Data)

	close(updates)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Forward did not return after the channel closed")
	}
}

func TestHandler_StreamsEvents(t *testing.T) {
	m := startManager(t)
	h := NewHandler(m, logger.Discard())
	h.SetInitialEvents(func() []Event {
		return []Event{NewUIChangedEvent(false, true), NewWishlistChangedEvent(nil)}
	})

	server := httptest.NewServer(h)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"?topics=wishlist,booking", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	frames := make(chan [2]string, 8)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		var event string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				frames <- [2]string{event, strings.TrimPrefix(line, "data: ")}
			}
		}
	}()

	next := func() [2]string {
		select {
		case f := <-frames:
			return f
		case <-time.After(2 * time.Second):
			t.Fatal("no frame received")
			return [2]string{}
		}
	}

	assert.Equal(t, "connected", next()[0])

	// The UI event is filtered out by topic; the wishlist replay is not.
	replay := next()
	assert.Equal(t, string(EventWishlistChanged), replay[0])
	var payload struct {
		Data WishlistEventData `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(replay[1]), &payload))
	assert.Equal(t, []string{}, payload.Data.Items)

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	m.Emit(NewBookingCancelledEvent(domain.Booking{ID: "K7Q2M9XA", Status: domain.BookingCancelled}))

	frame := next()
	assert.Equal(t, string(EventBookingCancelled), frame[0])
	assert.Contains(t, frame[1], `"status":"cancelled"`)
}

func TestHandler_RejectsNonGet(t *testing.T) {
	h := NewHandler(NewManager(logger.Discard()), logger.Discard())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/stream", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestParseTopics(t *testing.T) {
	assert.Nil(t, parseTopics(""))
	assert.Equal(t, []string{"booking", "ui"}, parseTopics(" booking, ,ui "))
}
