package msg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_CheckChain_Broken(t *testing.T) {
	t.Parallel()

	mc, err := NewMessageClass(Config{Name: "TEST/1.0", Body: &LengthBody{Strategy: ExplicitOrEOS}})
	require.NoError(t, err)
	m := New(mc, 0)
	defer m.Destroy()
	require.NoError(t, m.Feed([]byte("GET / X/1\r\nSubject: a\r\nVia: b\r\n"), true))
	done, err := m.Extract()
	require.True(t, done)
	require.NoError(t, err)
	require.NoError(t, m.CheckChain())

	second := m.node(m.head).next
	third := m.node(second).next
	require.NotZero(t, third)
	m.node(second).prev = third
	m.tail = second

	err = m.CheckChain()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header chain")
	assert.Contains(t, err.Error(), "chain node 2: prev 3, want 1")
	assert.Contains(t, err.Error(), "chain tail 2, want 3")
}
