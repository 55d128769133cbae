package greeting

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greeter/internal/constants"
)

func TestNewGreeting(t *testing.T) {
	local := time.FixedZone("CET", 3600)
	created := time.Date(2024, 12, 24, 19, 0, 0, 0, local)

	g, err := NewGreeting("ref-1", "test", "testa", "Merry Christmas", "Happy new year", created)
	require.NoError(t, err)

	id, err := uuid.Parse(g.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	assert.Equal(t, time.UTC, g.Created.Location())
	assert.True(t, created.Equal(g.Created))
	assert.Contains(t, g.Events(), constants.EventReceived)
}

func TestNewGreeting_UniqueIDs(t *testing.T) {
	const n = 200
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		g, err := NewGreeting("", "a", "b", "c", "d", time.Now())
		require.NoError(t, err)
		require.NotEmpty(t, g.ID)
		seen[g.ID] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestRecordEvent_Duplicate(t *testing.T) {
	g, err := NewGreeting("", "a", "b", "c", "d", time.Now())
	require.NoError(t, err)

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, g.RecordEvent(constants.EventStored, first))
	assert.False(t, g.RecordEvent(constants.EventStored, first.Add(time.Hour)))
	assert.Equal(t, first, g.Events()[constants.EventStored])
}

func TestEventsReturnsCopy(t *testing.T) {
	g, err := NewGreeting("", "a", "b", "c", "d", time.Now())
	require.NoError(t, err)

	events := g.Events()
	events["tampered"] = time.Now()
	assert.NotContains(t, g.Events(), "tampered")
}

func TestToEvent(t *testing.T) {
	g, err := NewGreeting("ref-9", "to", "from", "heading", "message", time.Now())
	require.NoError(t, err)

	event := g.ToEvent()
	assert.Equal(t, g.ID, event.After.ID)
	assert.Equal(t, g.ID, event.After.GreetingID)
	assert.Equal(t, "ref-9", event.After.ExternalReference)
	assert.Equal(t, g.Created, event.After.Created)

	back := FromRecord(event.After)
	assert.Equal(t, g.ID, back.ID)
	assert.Equal(t, g.Heading, back.Heading)
	assert.Equal(t, g.Events(), back.Events())
}
