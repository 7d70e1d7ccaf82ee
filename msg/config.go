package msg

import (
	"io"

	"braces.dev/errtrace"
	"gopkg.in/yaml.v3"
)

// BodyStrategy tells how a length-delimited body is sized when the message
// carries no explicit length.
type BodyStrategy int

const (
	// ExplicitOrEOS reads the body up to the end of stream.
	ExplicitOrEOS BodyStrategy = iota
	// ExplicitOrEmpty treats the body as empty.
	ExplicitOrEmpty
	// ExplicitOnly rejects the message with [ErrMissingLength].
	ExplicitOnly
)

var bodyStrategyNames = map[string]BodyStrategy{
	"explicit-or-eos":   ExplicitOrEOS,
	"explicit-or-empty": ExplicitOrEmpty,
	"explicit-only":     ExplicitOnly,
}

func (s BodyStrategy) String() string {
	for name, v := range bodyStrategyNames {
		if v == s {
			return name
		}
	}
	return "unknown"
}

// UnmarshalYAML implements [yaml.Unmarshaler].
func (s *BodyStrategy) UnmarshalYAML(node *yaml.Node) error {
	v, ok := bodyStrategyNames[node.Value]
	if !ok {
		return errtrace.Wrap(newInvalidArgError("unknown body strategy %q", node.Value))
	}
	*s = v
	return nil
}

// MarshalYAML implements [yaml.Marshaler].
func (s BodyStrategy) MarshalYAML() (any, error) { return s.String(), nil }

const (
	DefaultMinBlock          = 512
	DefaultExternalBlockSize = 4096
	DefaultExternalBlocks    = 8
	// DefaultMaxSize is used when no size limit is configured, zero disables the limit.
	DefaultMaxSize = 0
)

// Options are the tunables of messages created from a [MessageClass].
type Options struct {
	// MaxSize limits the message size in bytes, zero means unlimited.
	MaxSize int `yaml:"max_size"`
	// MinBlock is the allocation unit of receive buffers.
	MinBlock int `yaml:"min_block"`
	// Flags are behaviour flag names added to the class default flags.
	Flags []string `yaml:"flags"`
	// BodyStrategy sizes bodies without explicit length.
	BodyStrategy BodyStrategy `yaml:"body_strategy"`
	// StreamingSize limits the bytes received into external blocks, zero means unlimited.
	StreamingSize int `yaml:"streaming_size"`
	// ExternalBlockSize is the size of external streaming blocks.
	ExternalBlockSize int `yaml:"external_block_size"`
	// ExternalBlocks is the maximum number of external blocks acquired at once.
	ExternalBlocks int `yaml:"external_blocks"`
	// HashSize is the size of the header name table, zero picks one from the number of headers.
	HashSize int `yaml:"hash_size"`
}

func (o Options) withDefaults() Options {
	if o.MinBlock <= 0 {
		o.MinBlock = DefaultMinBlock
	}
	if o.ExternalBlockSize <= 0 {
		o.ExternalBlockSize = DefaultExternalBlockSize
	}
	if o.ExternalBlocks <= 0 {
		o.ExternalBlocks = DefaultExternalBlocks
	}
	return o
}

// ParsedFlags returns the behaviour flags named in o.Flags.
func (o Options) ParsedFlags() (Flags, error) {
	return errtrace.Wrap2(ParseFlags(o.Flags...))
}

// LoadOptions decodes YAML options from r. Unknown fields are rejected.
func LoadOptions(r io.Reader) (Options, error) {
	var o Options
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil && err != io.EOF { //nolint:errorlint
		return Options{}, errtrace.Wrap(err)
	}
	if _, err := o.ParsedFlags(); err != nil {
		return Options{}, errtrace.Wrap(err)
	}
	return o, nil
}
