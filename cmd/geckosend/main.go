// Command geckosend pushes a payload to a console waiting on a USB Gecko
// cable.
//
// Usage:
//
//	geckosend --port /dev/ttyUSB0 swiss.dol
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/albenik/go-serial/v2"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kunaigc/go-kunai/config"
	"github.com/kunaigc/go-kunai/dol"
	"github.com/kunaigc/go-kunai/gecko"
	"github.com/kunaigc/go-kunai/logging"
	"github.com/kunaigc/go-kunai/payload"
)

func main() {
	var (
		configPath string
		port       string
		baud       int
		compress   bool
		skipCheck  bool
		timeout    time.Duration
	)

	root := &cobra.Command{
		Use:          "geckosend FILE",
		Short:        "Send a payload over a USB Gecko cable",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				if cfg, err = config.Load(configPath); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("port") || cfg.Gecko.Port == "" {
				cfg.Gecko.Port = port
			}
			if cmd.Flags().Changed("baud") {
				cfg.Gecko.Baud = baud
			}

			zl, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer zl.Sync()
			log := logging.FromLogr(zapr.NewLogger(zl))

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if !skipCheck {
				if _, err := dol.ParseBytes(data); err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
			}
			if compress {
				if data, err = payload.Compress(data); err != nil {
					return fmt.Errorf("compress: %w", err)
				}
			}

			opts := []serial.Option{serial.WithBaudrate(cfg.Gecko.Baud)}
			if timeout > 0 {
				opts = append(opts, serial.WithReadTimeout(int(timeout/time.Millisecond)))
			}
			p, err := serial.Open(cfg.Gecko.Port, opts...)
			if err != nil {
				return fmt.Errorf("open %s: %w", cfg.Gecko.Port, err)
			}
			defer p.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			log.Info("sending", "file", args[0], "size", len(data), "port", cfg.Gecko.Port)
			start := time.Now()
			err = gecko.Send(ctx, p, data,
				gecko.WithLogger(log),
				gecko.WithProgressCallback(func(done, total int) {
					fmt.Fprintf(os.Stderr, "\r%d/%d bytes", done, total)
				}),
			)
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}
			log.Info("done", "elapsed", time.Since(start).String())
			return nil
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
	root.Flags().StringVar(&port, "port", "/dev/ttyUSB0", "serial port of the cable")
	root.Flags().IntVar(&baud, "baud", 115200, "baud rate")
	root.Flags().BoolVar(&compress, "xz", false, "send the payload xz compressed")
	root.Flags().BoolVar(&skipCheck, "no-check", false, "skip the DOL header check")
	root.Flags().DurationVar(&timeout, "read-timeout", 0, "serial read timeout; 0 leaves the port blocking")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
