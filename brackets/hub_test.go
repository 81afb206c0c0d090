package brackets

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	go hub.Run()
	return hub
}

func join(t *testing.T, hub *Hub, tournamentID, buffer int) *Client {
	t.Helper()
	c := &Client{Hub: hub, Send: make(chan []byte, buffer), Room: RoomForTournament(tournamentID)}
	before := hub.RoomSize(c.Room)
	hub.Register <- c
	require.Eventually(t, func() bool { return hub.RoomSize(c.Room) == before+1 }, time.Second, 5*time.Millisecond)
	return c
}

func TestHubPublishesToTournamentRoom(t *testing.T) {
	hub := startHub(t)
	watcher := join(t, hub, 7, 4)
	other := join(t, hub, 8, 4)

	hub.Publish(7, EventMatchUpdated, map[string]int{"match_id": 3})

	select {
	case raw := <-watcher.Send:
		var ev struct {
			Type         string         `json:"type"`
			TournamentID int            `json:"tournament_id"`
			Payload      map[string]int `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &ev))
		assert.Equal(t, EventMatchUpdated, ev.Type)
		assert.Equal(t, 7, ev.TournamentID)
		assert.Equal(t, 3, ev.Payload["match_id"])
	case <-time.After(time.Second):
		t.Fatal("watcher did not receive the event")
	}
	assert.Empty(t, other.Send)

	hub.Unregister <- watcher
	require.Eventually(t, func() bool { return hub.RoomSize("7") == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-watcher.Send
	assert.False(t, open)

	// a second unregister of the same client is ignored
	hub.Unregister <- watcher
	assert.Equal(t, 1, hub.RoomSize("8"))
}

func TestHubDisconnectsSlowClient(t *testing.T) {
	hub := startHub(t)
	slow := join(t, hub, 5, 1)
	fast := join(t, hub, 5, 8)

	hub.Publish(5, EventBracketUpdated, nil)
	hub.Publish(5, EventStandingsUpdated, nil)

	require.Eventually(t, func() bool { return hub.RoomSize("5") == 1 }, time.Second, 5*time.Millisecond)
	<-slow.Send
	_, open := <-slow.Send
	assert.False(t, open)
	require.Eventually(t, func() bool { return len(fast.Send) == 2 }, time.Second, 5*time.Millisecond)
}

func TestHubPublishWithoutRunningLoop(t *testing.T) {
	hub := NewHub(nil)
	assert.NotPanics(t, func() {
		for i := 0; i < eventBacklog+1; i++ {
			hub.Publish(1, EventBracketUpdated, nil)
		}
	})
}
