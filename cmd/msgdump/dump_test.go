package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghettovoice/textmsg/internal/log"
	"github.com/ghettovoice/textmsg/msg"
)

func testConfig(chunk int, enc string) dumpConfig {
	return dumpConfig{chunk: chunk, encode: enc, logger: log.Noop}
}

func TestDump(t *testing.T) {
	t.Parallel()

	const in = "POST /a HTTP/1.1\r\nHost: a\r\nContent-Length: 5\r\n\r\nhello" +
		"GET /b HTTP/1.1\r\nHost: b\r\n\r\n"

	for _, chunk := range []int{1, 3, 4096} {
		var out bytes.Buffer
		n, err := dump(context.Background(), strings.NewReader(in), &out, testConfig(chunk, encodeRaw))
		require.NoError(t, err, "chunk %d", chunk)
		assert.Equal(t, 2, n, "chunk %d", chunk)

		s := out.String()
		assert.Contains(t, s, "message 1: state=complete")
		assert.Contains(t, s, "  POST /a HTTP/1.1\n")
		assert.Contains(t, s, "  Host: a\n")
		assert.Contains(t, s, "  body: 5 bytes in 1 fragments\n")
		assert.Contains(t, s, "message 2: state=complete")
		assert.Contains(t, s, "  GET /b HTTP/1.1\n")
		assert.Contains(t, s, "--- raw\nGET /b HTTP/1.1\r\nHost: b\r\n\r\n")
	}
}

func TestDump_Encode(t *testing.T) {
	t.Parallel()

	const in = "POST / HTTP/1.1\r\nContent-Type: text/plain\r\nContent-Length: 2\r\n\r\nhi"

	var out bytes.Buffer
	n, err := dump(context.Background(), strings.NewReader(in), &out, testConfig(16, encodeCompact))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, out.String(), "--- compact\n")
	assert.Contains(t, out.String(), "Content-Type:text/plain\r\n")
	assert.Contains(t, out.String(), "Content-Length:2\r\n")
}

func TestDump_Stops(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		in        string
		wantCount int
		want      string
	}{
		{"empty", "", 0, ""},
		{"trailing empty line", "GET / HTTP/1.1\r\n\r\n\r\n", 1, "message 1: state=complete"},
		{"malformed", "garbage\r\n\r\nGET / HTTP/1.1\r\n\r\n", 1, "error: parse error"},
		{
			"truncated",
			"HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhel",
			1,
			"trunc",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			n, err := dump(context.Background(), strings.NewReader(c.in), &out, testConfig(4, encodeRaw))
			require.NoError(t, err)
			assert.Equal(t, c.wantCount, n)
			assert.Contains(t, out.String(), c.want)
		})
	}
}

type failReader struct{}

func (failReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestDump_ReadError(t *testing.T) {
	t.Parallel()

	_, err := dump(context.Background(), failReader{}, io.Discard, testConfig(4, encodeRaw))
	assert.EqualError(t, err, "boom")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = dump(ctx, strings.NewReader("GET / HTTP/1.1\r\n\r\n"), io.Discard, testConfig(4, encodeRaw))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(input, []byte("GET / HTTP/1.1\r\nHost: a\r\n\r\n"), 0o600))
	config := filepath.Join(dir, "opts.yaml")
	require.NoError(t, os.WriteFile(config, []byte("max_size: 1024\nflags: [extract_copy]\n"), 0o600))

	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out
	cmd.ErrWriter = io.Discard
	err := cmd.Run(context.Background(), []string{"msgdump", "-c", config, "--chunk", "2", "--encode", "canonic", input})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "message 1: state=complete flags=extract-copy|headers|body|complete")
	assert.Contains(t, out.String(), "--- canonic\n")

	for _, args := range [][]string{
		{"msgdump", "--chunk", "0", input},
		{"msgdump", "--encode", "xml", input},
		{"msgdump", "--flag", "headers", input},
	} {
		cmd := newCommand()
		cmd.Writer = io.Discard
		cmd.ErrWriter = io.Discard
		err := cmd.Run(context.Background(), args)
		assert.ErrorIs(t, err, msg.ErrInvalidArgument, "args %v", args)
	}
}
