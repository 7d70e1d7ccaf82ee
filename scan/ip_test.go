package scan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghettovoice/textmsg/scan"
)

func TestIP4Address(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
	}{
		{"127.0.0.1", 9},
		{"0.0.0.0", 7},
		{"255.255.255.255", 15},
		{"10.0.0.1:5060", 8},
		{"256.0.0.0", 0},
		{"01.2.3.4", 0},
		{"1.2.3", 0},
		{"1.2.3.", 0},
		{"1.2.3.4.5", 0},
		{"1.2.3.4a", 0},
		{"1.2.3.1000", 0},
		{"", 0},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, scan.IP4Address(c.in), "IP4Address(%q)", c.in)
	}
}

func TestIP6Address(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
	}{
		{"::", 2},
		{"::1", 3},
		{"1::", 3},
		{"1:2:3:4:5:6:7:8", 15},
		{"1:2:3:4:5:6:7::", 15},
		{"fe80::1:2", 9},
		{"::ffff:1.2.3.4", 14},
		{"::1.2.3.4", 9},
		{"1:2:3:4:5:6:1.2.3.4", 19},
		{"0:beef:feed:ded:0:0:2:3", 23},
		{"::1]:5060", 3},
		{"1:2:3:4:5:6:7", 0},
		{"1::2::3", 0},
		{"12345::", 0},
		{"1:2:", 0},
		{"x", 0},
		{"", 0},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, scan.IP6Address(c.in), "IP6Address(%q)", c.in)
	}
}

func TestIP6Reference(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5, scan.IP6Reference("[::1]:5060"))
	assert.Equal(t, 0, scan.IP6Reference("[::1"))
	assert.Equal(t, 0, scan.IP6Reference("::1"))
	assert.Equal(t, 0, scan.IP6Reference("[]"))
}

func TestScanIP6Address(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
		n    int
	}{
		{"0:beef:feed:ded:0:0:2:3", "0:beef:feed:ded::2:3", 23},
		{"0000:0000:0000:0000:0000:0000:0000:0001", "::1", 39},
		{"1:0:0:0:0:0:0:0", "1::", 15},
		{"::", "::", 2},
		{"FE80:0:0:0:0:0:0:1", "fe80::1", 18},
		{"1:0:2:0:0:3:0:0", "1:0:2::3:0:0", 15},
		{"1:2:3:4:5:6:7:8", "1:2:3:4:5:6:7:8", 15},
		{"1:0:2:3:4:5:6:7", "1:0:2:3:4:5:6:7", 15},
		{"::ffff:1.2.3.4", "::ffff:1.2.3.4", 14},
		{"0:0:0:0:0:0:10.0.0.1", "::10.0.0.1", 20},
		{"bogus", "", 0},
	}

	for _, c := range cases {
		got, n := scan.ScanIP6Address(c.in)
		require.Equal(t, c.want, got, "ScanIP6Address(%q)", c.in)
		require.Equal(t, c.n, n, "ScanIP6Address(%q)", c.in)
	}

	ref, n := scan.ScanIP6Reference("[0:0::01]")
	require.Equal(t, "[::1]", ref)
	require.Equal(t, 9, n)
}
