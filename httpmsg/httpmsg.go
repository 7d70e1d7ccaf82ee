// Package httpmsg is the HTTP/1.x message table.
package httpmsg

//go:generate go tool errtrace -w .

import (
	"log/slog"

	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/header"
	"github.com/ghettovoice/textmsg/msg"
)

// Extract error mask bits of the header classes.
const (
	ErrorContentLength uint32 = 1 << (iota + 1)
	ErrorTransferEncoding
	ErrorHost
)

// Header classes of the table.
var (
	ContentLength = &header.NumericClass{ClassInfo: msg.ClassInfo{
		Name:     "Content-Length",
		Kind:     msg.KindSingle,
		Critical: true,
	}}
	ContentType      = header.NewGeneric("Content-Type", "")
	ContentEncoding  = header.NewTokenList("Content-Encoding", "")
	ContentLanguage  = header.NewTokenList("Content-Language", "")
	ContentLocation  = header.NewGeneric("Content-Location", "")
	Accept           = header.NewList("Accept", "")
	AcceptEncoding   = header.NewList("Accept-Encoding", "")
	AcceptLanguage   = header.NewList("Accept-Language", "")
	Host             = NewHostClass()
	TransferEncoding = &header.ListClass{ClassInfo: msg.ClassInfo{
		Name:      "Transfer-Encoding",
		Kind:      msg.KindList,
		Critical:  true,
		HasParams: true,
	}}
	Via             = header.NewItems("Via", "")
	Warning         = &header.ItemsClass{ClassInfo: msg.ClassInfo{Name: "Warning", Kind: msg.KindAppend, HasParams: true}}
	Date            = header.NewGeneric("Date", "")
	Server          = header.NewGeneric("Server", "")
	UserAgent       = header.NewGeneric("User-Agent", "")
	Authorization   = header.NewAuth("Authorization", msg.KindSingle)
	WWWAuthenticate = header.NewAuth("WWW-Authenticate", msg.KindAppend)
)

// Headers returns the header definitions of the table.
func Headers() []msg.HeaderDef {
	return []msg.HeaderDef{
		{Class: ContentLength, Mask: ErrorContentLength},
		{Class: ContentType},
		{Class: ContentEncoding},
		{Class: ContentLanguage},
		{Class: ContentLocation},
		{Class: Accept},
		{Class: AcceptEncoding},
		{Class: AcceptLanguage},
		{Class: Host, Mask: ErrorHost},
		{Class: TransferEncoding, Mask: ErrorTransferEncoding},
		{Class: Via},
		{Class: Warning},
		{Class: Date},
		{Class: Server},
		{Class: UserAgent},
		{Class: Authorization},
		{Class: WWWAuthenticate},
	}
}

// NewClass creates the HTTP message class.
// Response bodies without a declared length are delimited by opts.BodyStrategy.
func NewClass(opts msg.Options, logger *slog.Logger) (*msg.MessageClass, error) {
	mc, err := msg.NewMessageClass(msg.Config{
		Name:    "HTTP/1.1",
		Body:    &Body{Strategy: opts.BodyStrategy},
		Request: NewRequestLineClass(),
		Status:  NewStatusLineClass(),
		Headers: Headers(),
		Options: opts,
		Logger:  logger,
	})
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return mc, nil
}
