package msg

import (
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/internal/errorutil"
	"github.com/ghettovoice/textmsg/internal/util"
)

// Flags is a set of message flags.
//
// Behaviour flags (ExtractCopy through Chunking) are set by the caller and control extraction and encoding.
// State flags are maintained by the extraction engine.
type Flags uint32

const (
	FlagExtractCopy Flags = 1 << iota // copy extracted text out of the receive buffer
	FlagCompact                       // encode with compact names and minimal whitespace
	FlagCanonic                       // encode in canonical form
	FlagCommaLists                    // encode same-name headers as comma-separated lists
	FlagMailbox                       // message is a stored mailbox entry, not a stream
	FlagChunking                      // body may be split into several payload fragments

	FlagStreaming // body fragments are delivered as they arrive
	FlagHeaders   // start line extracted
	FlagBody      // header section complete
	FlagTrailers  // body complete, trailers follow
	FlagComplete  // message complete
	FlagError     // extraction failed
	FlagTooLarge  // message exceeds the size limit
	FlagTrunc     // message was truncated
	FlagFrags     // body consists of several fragments

	behaviourFlags = FlagExtractCopy | FlagCompact | FlagCanonic | FlagCommaLists | FlagMailbox | FlagChunking
	stateFlags     = ^behaviourFlags
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagExtractCopy, "extract-copy"},
	{FlagCompact, "compact"},
	{FlagCanonic, "canonic"},
	{FlagCommaLists, "comma-lists"},
	{FlagMailbox, "mailbox"},
	{FlagChunking, "chunking"},
	{FlagStreaming, "streaming"},
	{FlagHeaders, "headers"},
	{FlagBody, "body"},
	{FlagTrailers, "trailers"},
	{FlagComplete, "complete"},
	{FlagError, "error"},
	{FlagTooLarge, "too-large"},
	{FlagTrunc, "trunc"},
	{FlagFrags, "frags"},
}

// Has reports whether all flags of mask are set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	for _, fn := range flagNames {
		if f&fn.flag == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(fn.name)
	}
	return sb.String()
}

// ParseFlags converts flag names to behaviour flags.
// Names are case-insensitive; underscores may be used instead of hyphens.
func ParseFlags(names ...string) (Flags, error) {
	var f Flags
loop:
	for _, name := range names {
		name = strings.ReplaceAll(strings.TrimSpace(name), "_", "-")
		if name == "" {
			continue
		}
		for _, fn := range flagNames {
			if fn.flag&behaviourFlags != 0 && util.EqFold(fn.name, name) {
				f |= fn.flag
				continue loop
			}
		}
		return 0, errtrace.Wrap(errorutil.NewInvalidArgumentError("unknown flag %q", name))
	}
	return f, nil
}
