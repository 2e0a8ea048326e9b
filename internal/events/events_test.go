package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishJSON(t *testing.T) {
	bus := NewEventBus()

	var got ReservationEventPayload
	bus.Subscribe(EventReservationCreated, func(event *Event) error {
		return json.Unmarshal(event.Payload, &got)
	})

	payload := ReservationEventPayload{
		ReservationID: 7,
		UserID:        1,
		Building:      "building1",
		Floor:         "floor1",
		Room:          "room1",
		StartDate:     "2026-01-15",
		EndDate:       "2026-01-17",
		StartTime:     "10:00",
		EndTime:       "11:00",
	}
	require.NoError(t, bus.PublishJSON(EventReservationCreated, payload))

	assert.Equal(t, payload, got)
}

func TestPublish_OnlyMatchingSubscribers(t *testing.T) {
	bus := NewEventBus()

	var created, deleted int
	bus.Subscribe(EventReservationCreated, func(event *Event) error {
		created++
		return nil
	})
	bus.Subscribe(EventReservationDeleted, func(event *Event) error {
		deleted++
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventReservationCreated, map[string]int{"id": 1}))

	assert.Equal(t, 1, created)
	assert.Equal(t, 0, deleted)
}

func TestPublish_MultipleSubscribers(t *testing.T) {
	bus := NewEventBus()

	var calls int
	handler := func(event *Event) error {
		calls++
		return nil
	}
	bus.Subscribe(EventUserRegistered, handler)
	bus.Subscribe(EventUserRegistered, handler)

	require.NoError(t, bus.PublishJSON(EventUserRegistered, nil))
	assert.Equal(t, 2, calls)
}

func TestPublish_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewEventBus()

	var reached bool
	bus.Subscribe(EventReservationUpdated, func(event *Event) error {
		return errors.New("boom")
	})
	bus.Subscribe(EventReservationUpdated, func(event *Event) error {
		reached = true
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventReservationUpdated, nil))
	assert.True(t, reached)
}

func TestPublishJSON_NilBus(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventReservationCreated, nil))
}

func TestPublish_SetsCreatedAt(t *testing.T) {
	bus := NewEventBus()

	var stamped bool
	bus.Subscribe(EventReservationCreated, func(event *Event) error {
		stamped = !event.CreatedAt.IsZero()
		return nil
	})

	bus.Publish(&Event{Type: EventReservationCreated})
	assert.True(t, stamped)
}
