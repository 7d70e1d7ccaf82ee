package msg_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ghettovoice/textmsg/msg"
)

func TestLoadOptions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      string
		want    msg.Options
		wantErr bool
	}{
		{
			name: "full",
			in: `max_size: 65536
min_block: 256
flags: [compact, comma_lists]
body_strategy: explicit-only
streaming_size: 1024
external_block_size: 512
external_blocks: 4
hash_size: 61
`,
			want: msg.Options{
				MaxSize:           65536,
				MinBlock:          256,
				Flags:             []string{"compact", "comma_lists"},
				BodyStrategy:      msg.ExplicitOnly,
				StreamingSize:     1024,
				ExternalBlockSize: 512,
				ExternalBlocks:    4,
				HashSize:          61,
			},
		},
		{name: "empty", in: ""},
		{name: "unknown field", in: "max_sizes: 1\n", wantErr: true},
		{name: "unknown flag", in: "flags: [headers]\n", wantErr: true},
		{name: "unknown strategy", in: "body_strategy: guess\n", wantErr: true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			got, err := msg.LoadOptions(strings.NewReader(c.in))
			if c.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(got, c.want); diff != "" {
				t.Errorf("LoadOptions() = %+v, want %+v\ndiff (-got +want):\n%v", got, c.want, diff)
			}
		})
	}
}

func TestBodyStrategy_MarshalYAML(t *testing.T) {
	t.Parallel()

	out, err := yaml.Marshal(msg.Options{BodyStrategy: msg.ExplicitOrEmpty})
	require.NoError(t, err)
	assert.Contains(t, string(out), "body_strategy: explicit-or-empty")
	assert.Equal(t, "explicit-or-eos", msg.ExplicitOrEOS.String())
	assert.Equal(t, "unknown", msg.BodyStrategy(42).String())
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	f, err := msg.ParseFlags("Compact", " comma_lists ", "", "EXTRACT-COPY")
	require.NoError(t, err)
	assert.Equal(t, msg.FlagCompact|msg.FlagCommaLists|msg.FlagExtractCopy, f)

	_, err = msg.ParseFlags("complete")
	assert.ErrorIs(t, err, msg.ErrInvalidArgument, "state flags are not accepted")

	assert.Equal(t, "none", msg.Flags(0).String())
	assert.Equal(t, "compact|complete|trunc", (msg.FlagCompact | msg.FlagComplete | msg.FlagTrunc).String())
}
