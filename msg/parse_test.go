package msg_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"

	"github.com/ghettovoice/textmsg/msg"
)

func TestParseFirstLine(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in         string
		p1, p2, p3 string
		wantErr    error
	}{
		{"GET /index.html HTTP/1.1", "GET", "/index.html", "HTTP/1.1", nil},
		{"HTTP/1.1 404 Not Found", "HTTP/1.1", "404", "Not Found", nil},
		{"HTTP/1.1  200", "HTTP/1.1", "200", "", nil},
		{"GARBAGE", "", "", "", msg.ErrMalformed},
	}
	for _, c := range cases {
		p1, p2, p3, err := msg.ParseFirstLine(c.in)
		if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
			t.Errorf("ParseFirstLine(%q) error = %v, want %v\ndiff (-got +want):\n%v", c.in, err, c.wantErr, diff)
			continue
		}
		if p1 != c.p1 || p2 != c.p2 || p3 != c.p3 {
			t.Errorf("ParseFirstLine(%q) = (%q, %q, %q), want (%q, %q, %q)", c.in, p1, p2, p3, c.p1, c.p2, c.p3)
		}
	}
}

func TestParseUint32(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in       string
		want     uint32
		wantRest string
		wantErr  error
	}{
		{"0", 0, "", nil},
		{"1234", 1234, "", nil},
		{"4294967295", 4294967295, "", nil},
		{"42  rest", 42, "rest", nil},
		{"4294967296", 0, "4294967296", msg.ErrMalformed},
		{"99999999999", 0, "99999999999", msg.ErrMalformed},
		{"12a", 0, "12a", msg.ErrMalformed},
		{"", 0, "", msg.ErrMalformed},
		{"x", 0, "x", msg.ErrMalformed},
	}
	for _, c := range cases {
		got, rest, err := msg.ParseUint32(c.in)
		if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
			t.Errorf("ParseUint32(%q) error = %v, want %v\ndiff (-got +want):\n%v", c.in, err, c.wantErr, diff)
		}
		if got != c.want || rest != c.wantRest {
			t.Errorf("ParseUint32(%q) = (%d, %q), want (%d, %q)", c.in, got, rest, c.want, c.wantRest)
		}
	}
}

func TestCommaScanner(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    string
		wantN   int
		wantErr error
	}{
		{"gzip, deflate", "gzip", 4, nil},
		{"gzip ;q=0.5 , x", "gzip;q=0.5", 12, nil},
		{"text/html;level=1", "text/html;level=1", 17, nil},
		{"a b  c", "a b c", 6, nil},
		{`"a, b" , c`, `"a, b"`, 7, nil},
		{", x", "", 0, nil},
		{`"open`, "", 0, msg.ErrMalformed},
	}
	for _, c := range cases {
		got, n, err := msg.CommaScanner(c.in)
		if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
			t.Errorf("CommaScanner(%q) error = %v, want %v\ndiff (-got +want):\n%v", c.in, err, c.wantErr, diff)
		}
		if got != c.want || n != c.wantN {
			t.Errorf("CommaScanner(%q) = (%q, %d), want (%q, %d)", c.in, got, n, c.want, c.wantN)
		}
	}
}

func TestParseCommaList(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		in       string
		list     msg.Params
		scanner  msg.Scanner
		want     msg.Params
		wantRest string
		wantErr  error
	}{
		{
			name: "items",
			in:   "gzip;q=0.9, deflate ,identity",
			want: msg.Params{"gzip;q=0.9", "deflate", "identity"},
		},
		{
			name: "empty items skipped",
			in:   " , a,, ,b, ",
			want: msg.Params{"a", "b"},
		},
		{
			name: "appends",
			in:   "c",
			list: msg.Params{"a", "b"},
			want: msg.Params{"a", "b", "c"},
		},
		{
			name:    "tokens",
			in:      "close, upgrade",
			scanner: msg.TokenScanner,
			want:    msg.Params{"close", "upgrade"},
		},
		{
			name:     "token list stops at garbage",
			in:       "close @",
			list:     msg.Params{"a"},
			scanner:  msg.TokenScanner,
			want:     msg.Params{"a"},
			wantRest: "close @",
			wantErr:  msg.ErrMalformed,
		},
		{
			name:    "attributes",
			in:      `realm = "x, y", nonce=abc`,
			scanner: msg.AttrValueScanner,
			want:    msg.Params{`realm="x, y"`, "nonce=abc"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			got, rest, err := msg.ParseCommaList(c.in, c.list, c.scanner)
			if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("ParseCommaList(%q) error = %v, want %v\ndiff (-got +want):\n%v", c.in, err, c.wantErr, diff)
			}
			if diff := cmp.Diff(got, c.want, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("ParseCommaList(%q) = %q, want %q\ndiff (-got +want):\n%v", c.in, got, c.want, diff)
			}
			if rest != c.wantRest {
				t.Errorf("ParseCommaList(%q) rest = %q, want %q", c.in, rest, c.wantRest)
			}
		})
	}
}

func TestParseParams(t *testing.T) {
	t.Parallel()

	got, rest, err := msg.ParseParams(";branch=z9hG4bK ; rport;ttl = 16, next", nil)
	assert.NoError(t, err)
	assert.Equal(t, msg.Params{"branch=z9hG4bK", "rport", "ttl=16"}, got)
	assert.Equal(t, ", next", rest)

	got, rest, err = msg.ParseParams("  , next", msg.Params{"a"})
	assert.NoError(t, err)
	assert.Equal(t, msg.Params{"a"}, got)
	assert.Equal(t, ", next", rest)

	_, _, err = msg.ParseParams(";=x", nil)
	assert.ErrorIs(t, err, msg.ErrMalformed)
}

func TestParseComment(t *testing.T) {
	t.Parallel()

	c, rest, err := msg.ParseComment("(a (nested) b) tail")
	assert.NoError(t, err)
	assert.Equal(t, "a (nested) b", c)
	assert.Equal(t, "tail", rest)

	_, _, err = msg.ParseComment("(open (x)")
	assert.ErrorIs(t, err, msg.ErrMalformed)
}

func TestParseHostPort(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in                   string
		host, port, wantRest string
		wantErr              error
	}{
		{"example.com", "example.com", "", "", nil},
		{"example.com:8080 x", "example.com", "8080", "x", nil},
		{"[::1]:5060", "[::1]", "5060", "", nil},
		{"10.0.0.1", "10.0.0.1", "", "", nil},
		{"", "", "", "", msg.ErrMalformed},
	}
	for _, c := range cases {
		host, port, rest, err := msg.ParseHostPort(c.in)
		if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
			t.Errorf("ParseHostPort(%q) error = %v, want %v\ndiff (-got +want):\n%v", c.in, err, c.wantErr, diff)
			continue
		}
		if host != c.host || port != c.port || rest != c.wantRest {
			t.Errorf("ParseHostPort(%q) = (%q, %q, %q), want (%q, %q, %q)",
				c.in, host, port, rest, c.host, c.port, c.wantRest)
		}
	}
}

func TestUnquote(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{`"plain"`, "plain", true},
		{`"with \"escapes\" and \\"`, `with "escapes" and \`, true},
		{`""`, "", true},
		{`"open`, "", false},
		{`bare`, "", false},
		{`"a" tail`, "", false},
	}
	for _, c := range cases {
		got, ok := msg.Unquote(c.in)
		if got != c.want || ok != c.wantOK {
			t.Errorf("Unquote(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.wantOK)
		}
	}

	s := `say "hi" \ bye`
	q := string(msg.EncodeUnquoted(nil, s))
	if got, ok := msg.Unquote(q); !ok || got != s {
		t.Errorf("Unquote(EncodeUnquoted(%q)) = (%q, %v), want (%q, true)", s, got, ok, s)
	}
}
