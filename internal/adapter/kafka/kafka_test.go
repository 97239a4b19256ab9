package kafka

import (
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToUpdate(t *testing.T) {
	msg := kafkago.Message{
		Key:       []byte("7"),
		Value:     []byte(`{"id": 7, "action": "updated"}`),
		Topic:     "property-updates",
		Partition: 1,
		Offset:    42,
	}

	update, err := mapMessageToUpdate(msg)
	require.NoError(t, err)

	assert.Equal(t, int64(7), update.PropertyID)
	assert.Equal(t, "updated", update.Action)
}

func TestMapMessageToUpdate_MalformedJSON(t *testing.T) {
	_, err := mapMessageToUpdate(kafkago.Message{Value: []byte(`{nope`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode property update")
}

func TestMapMessageToUpdate_MissingID(t *testing.T) {
	_, err := mapMessageToUpdate(kafkago.Message{Value: []byte(`{"action":"updated"}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without id")
}
