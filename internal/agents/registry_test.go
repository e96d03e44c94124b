package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedAgent struct {
	name string
}

func (a *namedAgent) Name() string { return a.name }

func (a *namedAgent) Invoke(_ context.Context, _ Input) (Output, error) {
	return Output{Content: "ok"}, nil
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(&namedAgent{name: "manufacturing"}, &namedAgent{name: "python"})
	require.NoError(t, err)

	h, ok := reg.Resolve("python")
	require.True(t, ok)
	assert.Equal(t, "python", h.Name())

	_, ok = reg.Resolve("unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{"manufacturing", "python"}, reg.Names())
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(&namedAgent{name: "general"}, &namedAgent{name: "general"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate agent")
}

func TestNewRegistryRejectsEmptyName(t *testing.T) {
	_, err := NewRegistry(&namedAgent{name: ""})
	assert.Error(t, err)
}
