package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherStoresMessages(t *testing.T) {
	t.Parallel()

	pub := New()
	id1, err := pub.Publish(context.Background(), "careers-review", map[string]string{"kind": "contact"})
	require.NoError(t, err)
	assert.Equal(t, "memory-1", id1)

	id2, err := pub.Publish(context.Background(), "careers-review", "payload")
	require.NoError(t, err)
	assert.Equal(t, "memory-2", id2)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "careers-review", msgs[0].Topic)

	msgs[0].Topic = "modified"
	assert.Equal(t, "careers-review", pub.Messages()[0].Topic, "Messages must return a copy")
}

func TestPublisherFailure(t *testing.T) {
	t.Parallel()

	pub := New()
	pub.Err = errors.New("unavailable")

	_, err := pub.Publish(context.Background(), "careers-review", "payload")
	assert.Error(t, err)
	assert.Empty(t, pub.Messages())
}
