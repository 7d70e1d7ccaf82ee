// Package header provides reusable header classes for protocol tables.
//
// Every class embeds [msg.ClassInfo], so the name, the kind and the other
// properties can be adjusted after construction:
//
//	cl := header.NewNumeric("Content-Length", "l")
//	cl.Critical = true
package header

//go:generate go tool errtrace -w .
