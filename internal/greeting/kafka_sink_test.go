package greeting

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greeter/internal/constants"
	"greeter/pkg/models"
)

func TestKafkaSink_Store(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewKafkaSink(pub)

	g := mustGreeting(t, "test")
	require.NoError(t, sink.Store(context.Background(), g))

	require.Len(t, pub.published, 1)
	msg := pub.published[0]
	assert.Equal(t, g.ID, msg.Key)
	assert.Equal(t, g.ID, msg.Headers[constants.HeaderGreetingID])

	event, err := models.DecodeGreetingEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, g.ID, event.After.ID)
	assert.Equal(t, g.ID, event.After.GreetingID)
	assert.True(t, g.Created.Equal(event.After.Created))
}

func TestKafkaSink_PublishFailureIsTransport(t *testing.T) {
	pub := &fakePublisher{publishErr: errors.New("failed to commit transaction")}
	sink := NewKafkaSink(pub)

	err := sink.Store(context.Background(), mustGreeting(t, "x"))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))
	assert.Contains(t, err.Error(), "failed to commit transaction")
}

func TestKafkaSink_AllUnsupported(t *testing.T) {
	sink := NewKafkaSink(&fakePublisher{})
	_, err := sink.All(context.Background())
	assert.True(t, IsKind(err, KindUnsupported))
}

func TestKafkaSink_Liveness(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewKafkaSink(pub)
	assert.NoError(t, sink.CheckLiveness(context.Background()))

	pub.pingErr = errors.New("no brokers")
	assert.True(t, IsKind(sink.CheckLiveness(context.Background()), KindTransport))

	require.NoError(t, sink.Close())
	assert.True(t, pub.closed)
}
