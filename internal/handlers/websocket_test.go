package handlers_test

import (
	"encoding/json"
	"testing"

	"github.com/arnold/challenges-api/internal/handlers"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain returns every queued event without blocking.
func drain(t *testing.T, events <-chan []byte) []handlers.WSEvent {
	t.Helper()
	var out []handlers.WSEvent
	for {
		select {
		case msg, ok := <-events:
			if !ok {
				return out
			}
			var ev handlers.WSEvent
			require.NoError(t, json.Unmarshal(msg, &ev))
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventTypes(events []handlers.WSEvent) []string {
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

func TestEventsReachOnlyTheOwner(t *testing.T) {
	app := newTestApp(t)
	ownerID, owner := newUser(t, "owner@example.com")
	otherID, _ := newUser(t, "other@example.com")

	phone, closePhone := handlers.WS.Subscribe(ownerID)
	laptop, closeLaptop := handlers.WS.Subscribe(ownerID)
	stranger, closeStranger := handlers.WS.Subscribe(otherID)
	defer closePhone()
	defer closeLaptop()
	defer closeStranger()
	assert.Equal(t, 2, handlers.WS.Connections(ownerID))
	assert.Equal(t, 1, handlers.WS.Connections(otherID))

	ch := postChallenge(t, app, owner, fiber.Map{"name": "Sync", "duration": 3, "habits": []string{"h"}})
	path := "/api/challenges/" + ch.ID.String()

	require.Equal(t, fiber.StatusOK, do(t, app, "POST", path+"/days/1/habits/0/toggle", owner, nil).StatusCode)
	require.Equal(t, fiber.StatusOK, do(t, app, "PUT", path, owner, fiber.Map{"name": "Sync more"}).StatusCode)
	require.Equal(t, fiber.StatusOK, do(t, app, "DELETE", path, owner, nil).StatusCode)

	want := []string{handlers.EventDayUpdated, handlers.EventChallengeUpdated, handlers.EventChallengeDeleted}
	for _, events := range []<-chan []byte{phone, laptop} {
		got := drain(t, events)
		assert.Equal(t, want, eventTypes(got))
		for _, ev := range got {
			assert.Equal(t, ch.ID.String(), ev.ChallengeID)
		}
	}
	assert.Empty(t, drain(t, stranger))
}

func TestHubUnsubscribe(t *testing.T) {
	hub := handlers.NewHub()
	userID := uuid.New()

	events, unsubscribe := hub.Subscribe(userID)
	require.Equal(t, 1, hub.Connections(userID))

	unsubscribe()
	unsubscribe()
	assert.Zero(t, hub.Connections(userID))

	_, ok := <-events
	assert.False(t, ok)

	// sending with nobody listening is a no-op
	hub.Send(userID, handlers.WSEvent{Type: handlers.EventChallengeDeleted})
}

func TestHubSendDoesNotBlockOnSlowReader(t *testing.T) {
	hub := handlers.NewHub()
	userID := uuid.New()
	events, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()

	for i := 0; i < 100; i++ {
		hub.Send(userID, handlers.WSEvent{Type: handlers.EventChallengeUpdated})
	}

	got := drain(t, events)
	assert.NotEmpty(t, got)
	assert.Less(t, len(got), 100)
}
