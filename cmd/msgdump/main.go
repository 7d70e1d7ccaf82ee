// Command msgdump extracts HTTP/1.x messages from a file or stdin and prints
// their headers, state flags and encoding.
//
//	msgdump --chunk 7 --encode compact request.txt
package main

//go:generate go tool errtrace -w .

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"braces.dev/errtrace"
	"github.com/urfave/cli/v3"

	"github.com/ghettovoice/textmsg/internal/errorutil"
	"github.com/ghettovoice/textmsg/internal/log"
	"github.com/ghettovoice/textmsg/msg"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "msgdump",
		Usage:     "extract HTTP/1.x messages and dump them",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML file with message options",
			},
			&cli.IntFlag{
				Name:  "chunk",
				Value: 4096,
				Usage: "bytes fed to the extractor at once",
			},
			&cli.IntFlag{
				Name:  "max-size",
				Usage: "message size limit, overrides the config",
			},
			&cli.StringSliceFlag{
				Name:  "flag",
				Usage: "behaviour flag added to the config flags, repeatable",
			},
			&cli.StringFlag{
				Name:  "encode",
				Value: encodeRaw,
				Usage: "encoding to print: raw, canonic or compact",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log extraction details",
			},
			&cli.BoolFlag{
				Name:  "dev",
				Usage: "use the developer log handler",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return errtrace.Wrap(err)
	}

	var r io.Reader = os.Stdin
	if name := cmd.Args().First(); name != "" && name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return errtrace.Wrap(err)
		}
		defer f.Close()
		r = f
	}

	n, err := dump(ctx, r, cmd.Root().Writer, cfg)
	cfg.logger.LogAttrs(ctx, slog.LevelDebug, "dump finished", slog.Int("messages", n))
	return errtrace.Wrap(err)
}

func loadConfig(cmd *cli.Command) (dumpConfig, error) {
	var cfg dumpConfig
	if name := cmd.String("config"); name != "" {
		f, err := os.Open(name)
		if err != nil {
			return cfg, errtrace.Wrap(err)
		}
		defer f.Close()
		if cfg.opts, err = msg.LoadOptions(f); err != nil {
			return cfg, errtrace.Wrap(fmt.Errorf("load %s: %w", name, err))
		}
	}
	if cmd.IsSet("max-size") {
		cfg.opts.MaxSize = cmd.Int("max-size")
	}
	cfg.opts.Flags = append(cfg.opts.Flags, cmd.StringSlice("flag")...)
	if _, err := cfg.opts.ParsedFlags(); err != nil {
		return cfg, errtrace.Wrap(err)
	}

	cfg.chunk = cmd.Int("chunk")
	if cfg.chunk <= 0 {
		return cfg, errtrace.Wrap(errorutil.NewInvalidArgumentError("invalid chunk size %d", cfg.chunk))
	}
	cfg.encode = cmd.String("encode")
	if _, ok := encodings[cfg.encode]; !ok {
		return cfg, errtrace.Wrap(errorutil.NewInvalidArgumentError("unknown encoding %q", cfg.encode))
	}

	switch {
	case cmd.Bool("dev"):
		cfg.logger = log.Dev
	case cmd.Bool("verbose"):
		cfg.logger = log.Def
	default:
		cfg.logger = log.New(cmd.Root().ErrWriter, slog.LevelWarn)
	}
	cfg.logger.LogAttrs(context.Background(), slog.LevelDebug, "options loaded",
		slog.Any("options", log.FmtValue(cfg.opts, false)),
		slog.Int("chunk", cfg.chunk),
		slog.String("encode", cfg.encode),
	)
	return cfg, nil
}
