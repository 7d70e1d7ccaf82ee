// Package scan implements byte classification and span primitives for RFC822-style text protocols.
//
// Every span function returns the number of leading bytes of its input that belong to the scanned
// construct, or zero when the input does not start with it. The functions never allocate
// and accept both string and []byte input.
package scan
