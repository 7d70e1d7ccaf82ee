package msg_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghettovoice/textmsg/msg"
)

func TestMessage_BufCommit(t *testing.T) {
	t.Parallel()

	mc := newClass(t, 0)
	m := msg.New(mc, 0)
	defer m.Destroy()

	b, err := m.Buf(10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(b), 10)
	assert.Equal(t, len(b), m.Room())

	assert.ErrorIs(t, m.Commit(m.Room()+1, false), msg.ErrInvalidArgument)

	n := copy(b, "GET / X/1\r\nSubj")
	require.NoError(t, m.Commit(n, false))
	assert.Equal(t, n, m.Committed())
	assert.Equal(t, "GET / X/1\r\nSubj", string(m.CommittedData()))

	done, err := m.Extract()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, msg.ParseStateHeaders, m.State())
	assert.Equal(t, len("GET / X/1\r\n"), m.Size())
	assert.Equal(t, "Subj", string(m.CommittedData()))

	b, err = m.BufExact(100)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(b), 100)
	n = copy(b, "ect: hi\r\n\r\n")
	require.NoError(t, m.Commit(n, true))
	done, err = m.Extract()
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, m.EOS())
	assert.Equal(t, "hi", m.Get(subject).String())
	assert.Equal(t, "GET / X/1\r\nSubject: hi\r\n\r\n", m.String())
}

func TestMessage_SetBuffer(t *testing.T) {
	t.Parallel()

	mc := newClass(t, 0)
	m := msg.New(mc, 0)
	defer m.Destroy()

	in := "TEST/1.0 180 Ringing\r\nSubject: s\r\nl: 0\r\n\r\n"
	buf := make([]byte, 128)
	copy(buf, in)
	require.NoError(t, m.SetBuffer(buf))
	assert.ErrorIs(t, m.SetBuffer(buf), msg.ErrInvalidArgument)
	require.NoError(t, m.Commit(len(in), false))

	done, err := m.Extract()
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, &msg.StatusLine{Version: "TEST/1.0", Code: 180, Phrase: "Ringing"}, m.Status().Value)
	assert.Same(t, &buf[0], &m.Status().Data()[0], "headers point into the caller buffer")
}

func TestMessage_Next(t *testing.T) {
	t.Parallel()

	mc := newClass(t, 0)
	m, done, err := extract(t, mc, "GET /1 X/1\r\nl: 0\r\n\r\nGET /2 X/1\r\n", false)
	require.True(t, done)
	require.NoError(t, err)

	next, err := m.Next()
	require.NoError(t, err)
	require.NotNil(t, next)
	defer next.Destroy()
	assert.Equal(t, "GET /2 X/1\r\n", string(next.CommittedData()))
	assert.Zero(t, m.Committed())

	again, err := m.Next()
	require.NoError(t, err)
	assert.Nil(t, again)

	attached := msg.New(mc, 0)
	require.NoError(t, next.SetNext(attached))
	got, err := next.Next()
	require.NoError(t, err)
	assert.Same(t, attached, got)
	attached.Destroy()
}

func TestMessage_RecvIOVec_Chunking(t *testing.T) {
	t.Parallel()

	mc := newClass(t, msg.FlagChunking)
	m, done, err := extract(t, mc, "GET / X/1\r\nContent-Length: 10\r\n\r\nabc", false)
	require.NoError(t, err)
	require.False(t, done)
	assert.True(t, m.Flags().Has(msg.FlagFrags))

	buf, err := m.RecvBuffer()
	require.NoError(t, err)
	assert.Nil(t, buf, "pending fragment is not bound yet")

	vec, err := m.RecvIOVec(10, false)
	require.NoError(t, err)
	require.Len(t, vec, 2)
	assert.Len(t, vec[0], 7)
	assert.Len(t, vec[1], 3)

	n := copy(vec[0], "defghij")
	n += copy(vec[1], "GET")
	require.NoError(t, m.RecvCommit(n, false))

	done, err = m.Extract()
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, "abcdefghij", string(m.Body()))
	assert.Len(t, m.GetAll(msg.PayloadClass), 2)
	assert.Equal(t, "GET / X/1\r\nContent-Length: 10\r\n\r\nabcdefghij", m.String())

	next, err := m.Next()
	require.NoError(t, err)
	require.NotNil(t, next)
	defer next.Destroy()
	assert.Equal(t, "GET", string(next.CommittedData()))
}

func TestMessage_RecvIOVec_Truncated(t *testing.T) {
	t.Parallel()

	mc := newClass(t, msg.FlagChunking)
	m, _, err := extract(t, mc, "GET / X/1\r\nContent-Length: 10\r\n\r\nabc", false)
	require.NoError(t, err)

	vec, err := m.RecvIOVec(2, true)
	require.NoError(t, err)
	require.Len(t, vec, 1)
	copy(vec[0], "de")
	require.NoError(t, m.RecvCommit(2, true))

	done, err := m.Extract()
	assert.True(t, done)
	assert.ErrorIs(t, err, msg.ErrTruncated)
	assert.True(t, m.Flags().Has(msg.FlagTrunc))

	cp := m.Copy()
	defer cp.Destroy()
	assert.Equal(t, "abcde", string(cp.Body()), "pending fragments are not copied")
}

func TestMessage_ExternalBuffers(t *testing.T) {
	t.Parallel()

	pool, err := msg.NewBlockPool(16, 4)
	require.NoError(t, err)
	defer pool.Close()

	mc := newClass(t, 0)
	m := msg.New(mc, 0)
	m.SetBlockPool(pool)

	ctx := context.Background()
	blocks, err := m.ExternalBuffers(ctx, 40, 0)
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, 3, pool.InUse())
	for _, b := range blocks {
		assert.Equal(t, 16, b.Len())
		assert.Equal(t, 1, b.Refs())
	}

	require.NoError(t, m.ReleaseExternal(blocks[0]))
	assert.Equal(t, 2, pool.InUse())
	assert.ErrorIs(t, m.ReleaseExternal(blocks[0]), msg.ErrNotFound)

	m.SetStreamingSize(20)
	blocks, err = m.ExternalBuffers(ctx, 40, 0)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, 16, blocks[0].Len())
	assert.Equal(t, 4, blocks[1].Len())
	assert.Equal(t, 4, pool.InUse())

	tctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = m.ExternalBuffers(tctx, 16, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	m.Destroy()
	assert.Zero(t, pool.InUse())

	_, err = msg.NewBlockPool(0, 1)
	assert.ErrorIs(t, err, msg.ErrInvalidArgument)
}

func TestMessage_ExternalBuffers_NoPool(t *testing.T) {
	t.Parallel()

	cfg := newConfig(0)
	cfg.Options.ExternalBlockSize = 32
	cfg.Options.ExternalBlocks = 2
	mc, err := msg.NewMessageClass(cfg)
	require.NoError(t, err)

	m := msg.New(mc, 0)
	defer m.Destroy()
	blocks, err := m.ExternalBuffers(context.Background(), 1000, 0)
	require.NoError(t, err)
	assert.Len(t, blocks, 2)
	for _, b := range blocks {
		assert.Equal(t, 32, b.Len())
	}
}
