package httpmsg_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghettovoice/textmsg/httpmsg"
	"github.com/ghettovoice/textmsg/msg"
)

func newClass(tb testing.TB, strategy msg.BodyStrategy) *msg.MessageClass {
	tb.Helper()
	mc, err := httpmsg.NewClass(msg.Options{BodyStrategy: strategy}, nil)
	if err != nil {
		tb.Fatalf("httpmsg.NewClass() error = %v, want nil", err)
	}
	return mc
}

func extract(tb testing.TB, mc *msg.MessageClass, s string, eos bool) (*msg.Message, bool, error) {
	tb.Helper()
	m := msg.New(mc, 0)
	tb.Cleanup(m.Destroy)
	if err := m.Feed([]byte(s), eos); err != nil {
		tb.Fatalf("m.Feed() error = %v, want nil", err)
	}
	done, err := m.Extract()
	return m, done, err
}

func TestExtract(t *testing.T) {
	t.Parallel()

	const chunked = "HTTP/1.1 200 OK\r\n" +
		"Transfer-Encoding: gzip, chunked\r\n" +
		"\r\n" +
		"5\r\nhello\r\n" +
		"6;ext=1\r\n world\r\n" +
		"0\r\n" +
		"X-Trailer: yes\r\n" +
		"\r\n"

	cases := []struct {
		name     string
		in       string
		strategy msg.BodyStrategy
		eos      bool
		wantDone bool
		wantErr  error
		wantBody string
		wantRest string
	}{
		{
			name:     "request with length",
			in:       "POST /x HTTP/1.1\r\nHost: example.com:8080\r\nContent-Length: 5\r\n\r\nhelloGET",
			wantDone: true,
			wantBody: "hello",
			wantRest: "GET",
		},
		{
			name:     "request without length",
			in:       "GET / HTTP/1.1\r\nHost: a\r\n\r\nGET /next",
			strategy: msg.ExplicitOrEOS,
			wantDone: true,
			wantRest: "GET /next",
		},
		{
			name:     "response until eos",
			in:       "HTTP/1.1 200 OK\r\nServer: x\r\n\r\nabc",
			eos:      true,
			wantDone: true,
			wantBody: "abc",
		},
		{
			name:     "response waits for eos",
			in:       "HTTP/1.1 200 OK\r\nServer: x\r\n\r\nabc",
			wantRest: "abc",
		},
		{
			name:     "response explicit only",
			in:       "HTTP/1.1 200 OK\r\nServer: x\r\n\r\nabc",
			strategy: msg.ExplicitOnly,
			wantDone: true,
			wantErr:  msg.ErrMissingLength,
		},
		{
			name:     "response without body",
			in:       "HTTP/1.1 204 No Content\r\n\r\nHTTP/1.1 200 OK\r\n",
			wantDone: true,
			wantRest: "HTTP/1.1 200 OK\r\n",
		},
		{
			name:     "chunked",
			in:       chunked,
			wantDone: true,
			wantBody: "hello world",
		},
		{
			name:     "chunked truncated",
			in:       "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhel",
			eos:      true,
			wantDone: true,
			wantErr:  msg.ErrTruncated,
			wantBody: "hel",
		},
		{
			name:     "bad chunk size",
			in:       "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\nzz\r\n",
			wantDone: true,
			wantErr:  msg.ErrMalformed,
		},
		{
			name:     "chunk size overflow",
			in:       "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n123456789\r\n",
			wantDone: true,
			wantErr:  msg.ErrMalformed,
		},
		{
			name:     "bad request version",
			in:       "GET / HTTP/x.1\r\nHost: a\r\n\r\n",
			wantDone: true,
			wantErr:  msg.ErrMalformed,
		},
		{
			name:     "lower case protocol name",
			in:       "GET / http/1.1\r\nHost: a\r\n\r\n",
			wantDone: true,
			wantErr:  msg.ErrMalformed,
		},
		{
			name:     "bad status version",
			in:       "HTTP/11 200 OK\r\n\r\n",
			wantDone: true,
			wantErr:  msg.ErrMalformed,
		},
		{
			name:     "missing line end after chunk",
			in:       "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n3\r\nabcXY\r\n0\r\n\r\n",
			wantDone: true,
			wantErr:  msg.ErrMalformed,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			m, done, err := extract(t, newClass(t, c.strategy), c.in, c.eos)
			assert.Equal(t, c.wantDone, done, "m.Extract() done")
			if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
				t.Fatalf("m.Extract() error = %v, want %v\ndiff (-got +want):\n%v", err, c.wantErr, diff)
			}
			if c.wantErr == msg.ErrMalformed || c.wantErr == msg.ErrMissingLength {
				return
			}
			assert.Equal(t, c.wantBody, string(m.Body()), "m.Body()")
			assert.Equal(t, c.wantRest, string(m.CommittedData()), "m.CommittedData()")
		})
	}
}

func TestExtract_Chunked(t *testing.T) {
	t.Parallel()

	const in = "HTTP/1.1 200 OK\r\n" +
		"Transfer-Encoding: chunked\r\n" +
		"\r\n" +
		"5\r\nhello\r\n" +
		"0\r\n" +
		"X-Trailer: yes\r\n" +
		"\r\n"

	mc := newClass(t, msg.ExplicitOrEOS)
	m := msg.New(mc, 0)
	defer m.Destroy()

	var (
		done bool
		err  error
	)
	for i := range len(in) {
		require.NoError(t, m.Feed([]byte{in[i]}, i == len(in)-1))
		if done, err = m.Extract(); done {
			require.Equal(t, len(in)-1, i, "done before the last byte")
			break
		}
	}
	require.NoError(t, err)
	require.True(t, done)

	assert.True(t, httpmsg.IsChunked(m))
	assert.Equal(t, "hello", string(m.Body()))
	assert.Equal(t, msg.ParseStateComplete, m.State())

	trailers := m.GetAll(msg.UnknownClass)
	require.Len(t, trailers, 1)
	assert.Equal(t, "X-Trailer: yes", trailers[0].String())

	assert.Equal(t, in, m.String())
}

func TestExtract_Headers(t *testing.T) {
	t.Parallel()

	const in = "GET /index.html HTTP/1.1\r\n" +
		"Host: [::1]:8080\r\n" +
		"Accept: text/html, application/json;q=0.9\r\n" +
		"Accept: */*\r\n" +
		"Authorization: Basic dXNlcjpwYXNz\r\n" +
		"Via: 1.0 fred, 1.1 p.example.net\r\n" +
		"\r\n"

	m, done, err := extract(t, newClass(t, msg.ExplicitOrEOS), in, false)
	require.NoError(t, err)
	require.True(t, done)

	rl, ok := m.Request().Value.(*msg.RequestLine)
	require.True(t, ok)
	assert.Equal(t, msg.RequestLine{Method: "GET", Target: "/index.html", Version: "HTTP/1.1"}, *rl)

	hp, ok := m.Get(httpmsg.Host).Value.(*httpmsg.HostPort)
	require.True(t, ok)
	assert.Equal(t, httpmsg.HostPort{Host: "[::1]", Port: "8080"}, *hp)

	assert.Equal(t, msg.Params{"text/html", "application/json;q=0.9", "*/*"}, m.Get(httpmsg.Accept).Params)
	assert.Len(t, m.GetAll(httpmsg.Via), 2)
	assert.Equal(t, "Basic dXNlcjpwYXNz", m.Get(httpmsg.Authorization).String())

	// merged list lines are encoded back as one line
	want := "GET /index.html HTTP/1.1\r\n" +
		"Host: [::1]:8080\r\n" +
		"Accept: text/html, application/json;q=0.9, */*\r\n" +
		"Authorization: Basic dXNlcjpwYXNz\r\n" +
		"Via: 1.0 fred, 1.1 p.example.net\r\n" +
		"\r\n"
	assert.Equal(t, want, m.String())
}

func TestExtract_BadContentLength(t *testing.T) {
	t.Parallel()

	m, done, err := extract(t, newClass(t, msg.ExplicitOrEOS),
		"POST / HTTP/1.1\r\nContent-Length: abc\r\nHost: a\r\n\r\n", false)
	assert.True(t, done)
	assert.ErrorIs(t, err, msg.ErrMalformed)
	assert.True(t, m.HasError())
	assert.NotZero(t, m.ExtractErrors()&httpmsg.ErrorContentLength)
	assert.Zero(t, m.ExtractErrors()&httpmsg.ErrorHost)
	assert.NotNil(t, m.Get(httpmsg.Host))
}

func TestBodyLength(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"HTTP/1.1 100 Continue\r\n\r\n", 0, true},
		{"HTTP/1.1 304 Not Modified\r\nContent-Length: 10\r\n\r\n", 0, true},
		{"HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\n", 10, true},
		{"HTTP/1.1 200 OK\r\n\r\n", 0, false},
	}
	mc := newClass(t, msg.ExplicitOrEOS)
	for _, c := range cases {
		m := msg.New(mc, 0)
		require.NoError(t, m.Feed([]byte(c.in), false))
		_, _ = m.Extract()
		got, ok := httpmsg.BodyLength(m)
		if got != c.want || ok != c.wantOK {
			t.Errorf("BodyLength(%q) = (%d, %v), want (%d, %v)", c.in, got, ok, c.want, c.wantOK)
		}
		m.Destroy()
	}
}

func TestHostClass(t *testing.T) {
	t.Parallel()

	h, err := msg.MakeHeader(httpmsg.Host, "example.com")
	require.NoError(t, err)
	assert.Equal(t, "example.com", h.String())

	h, err = msg.MakeHeader(httpmsg.Host, "example.com:80")
	require.NoError(t, err)
	assert.Equal(t, "example.com:80", h.String())
	dup := msg.DupHeader(h)
	assert.Equal(t, &httpmsg.HostPort{Host: "example.com", Port: "80"}, dup.Value)

	for _, in := range []string{"", "exa mple.com", "-bad"} {
		_, err := msg.MakeHeader(httpmsg.Host, in)
		assert.ErrorIs(t, err, msg.ErrMalformed, "MakeHeader(%q)", in)
	}
}

func TestStartLineClasses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		class   msg.HeaderClass
		in      string
		want    any
		wantErr error
	}{
		{
			name:  "request",
			class: httpmsg.NewRequestLineClass(),
			in:    "OPTIONS * HTTP/1.0",
			want:  &msg.RequestLine{Method: "OPTIONS", Target: "*", Version: "HTTP/1.0"},
		},
		{
			name:    "request with long version",
			class:   httpmsg.NewRequestLineClass(),
			in:      "GET / HTTP/1.10",
			wantErr: msg.ErrMalformed,
		},
		{
			name:    "request without version",
			class:   httpmsg.NewRequestLineClass(),
			in:      "GET /",
			wantErr: msg.ErrMalformed,
		},
		{
			name:  "status",
			class: httpmsg.NewStatusLineClass(),
			in:    "HTTP/1.1 404 Not Found",
			want:  &msg.StatusLine{Version: "HTTP/1.1", Code: 404, Phrase: "Not Found"},
		},
		{
			name:    "status with other protocol",
			class:   httpmsg.NewStatusLineClass(),
			in:      "SIP/2.0 200 OK",
			wantErr: msg.ErrMalformed,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			h := &msg.Header{Class: c.class}
			err := c.class.Decode(nil, h, c.in)
			if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
				t.Fatalf("Decode(%q) error = %v, want %v\ndiff (-got +want):\n%v", c.in, err, c.wantErr, diff)
			}
			if diff := cmp.Diff(h.Value, c.want); diff != "" {
				t.Errorf("Decode(%q) value = %v, want %v\ndiff (-got +want):\n%v", c.in, h.Value, c.want, diff)
			}
		})
	}
}
