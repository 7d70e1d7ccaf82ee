package scan

import (
	"github.com/miekg/dns"

	"github.com/ghettovoice/textmsg/internal/constraints"
)

// Domain returns the length of the domain name at the start of s.
// Labels are alphanumerics and hyphens, may not start or end with a hyphen
// and must form a valid DNS name.
func Domain[T constraints.Byteseq](s T) int {
	n := 0
	for n < len(s) && (IsAlnum(s[n]) || s[n] == '-' || s[n] == '.') {
		n++
	}
	if n == 0 {
		return 0
	}
	end := n
	if s[end-1] == '.' {
		end-- // fully qualified
	}
	for i := 0; i <= end; {
		j := i
		for j < end && s[j] != '.' {
			j++
		}
		if j == i {
			return 0
		}
		if s[i] == '-' || s[j-1] == '-' {
			return 0
		}
		i = j + 1
	}
	if _, ok := dns.IsDomainName(string(s[:n])); !ok {
		return 0
	}
	return n
}

// Host returns the length of the host at the start of s: an IPv6 reference, an IPv4 address or a domain name.
func Host[T constraints.Byteseq](s T) int {
	if len(s) == 0 {
		return 0
	}
	if s[0] == '[' {
		return IP6Reference(s)
	}
	if n := IP4Address(s); n > 0 {
		return n
	}
	return Domain(s)
}

// HostPort splits the host[:port] at the start of s.
// The port, when present, must be a decimal number not above 65535.
// It returns the number of bytes consumed or zero when s does not start with a valid host.
func HostPort[T constraints.Byteseq](s T) (host, port T, n int) {
	n = Host(s)
	if n == 0 {
		return host, port, 0
	}
	host = s[:n]
	if n < len(s) && s[n] == ':' {
		d := SpanDigit(s[n+1:])
		if d == 0 || d > 5 {
			return host, port, 0
		}
		v := 0
		for k := n + 1; k < n+1+d; k++ {
			v = v*10 + int(s[k]-'0')
		}
		if v > 65535 {
			return host, port, 0
		}
		port = s[n+1 : n+1+d]
		n += 1 + d
	}
	return host, port, n
}
