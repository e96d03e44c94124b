package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSinkPublishAndConsume(t *testing.T) {
	sink := NewSink(2)

	sink.Publish(NewEvent(EventAgentSelected, "general", "", nil))
	sink.Publish(NewEvent(EventAgentCompleted, "general", "", nil))

	assert.Equal(t, EventAgentSelected, (<-sink.Events()).Type)
	assert.Equal(t, EventAgentCompleted, (<-sink.Events()).Type)
	assert.Zero(t, sink.Dropped())
}

func TestSinkDropsWhenFull(t *testing.T) {
	sink := NewSink(1)

	sink.Publish(NewEvent(EventAgentSelected, "a", "", nil))
	sink.Publish(NewEvent(EventAgentSelected, "b", "", nil))
	sink.Publish(NewEvent(EventAgentSelected, "c", "", nil))

	assert.Equal(t, int64(2), sink.Dropped())
	assert.Equal(t, "a", (<-sink.Events()).Name)
}

func TestSinkCloseIsIdempotent(t *testing.T) {
	sink := NewSink(1)
	sink.Close()
	sink.Close()

	// Publishing after close must not panic on the closed channel.
	sink.Publish(NewEvent(EventError, "", "", nil))

	_, open := <-sink.Events()
	assert.False(t, open)
}
