// Command kunaictl inspects and programs the SPI flash of a KunaiGC board.
//
// The flash is reached through a periph.io SPI port, with or without the
// board's passthrough in front of it, or through a simulated chip backed
// by an image file (--image).
//
// Usage:
//
//	kunaictl id
//	kunaictl dump --addr 0 --len 0x40000 --out loader.bin
//	kunaictl provision loader.dol --xz
//	kunaictl put swiss.dol --name swiss.dol
//	kunaictl bootcount
package main

import (
	"fmt"
	"os"

	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kunaigc/go-kunai/config"
	"github.com/kunaigc/go-kunai/logging"
)

type globals struct {
	configPath string
	image      string
	bare       bool
	verbose    bool

	cfg *config.Config
	log logging.Logger
	zl  *zap.Logger
}

func main() {
	g := &globals{}

	root := &cobra.Command{
		Use:           "kunaictl",
		Short:         "KunaiGC flash tool",
		Long:          "Identify, dump, erase and program the SPI flash of a KunaiGC board, and manage its littlefs volume",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if g.zl != nil {
				_ = g.zl.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&g.image, "image", "", "use a simulated chip backed by this image file")
	root.PersistentFlags().BoolVar(&g.bare, "bare", false, "chip is wired directly, no board passthrough")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		idCmd(g),
		dumpCmd(g),
		eraseCmd(g),
		writeCmd(g),
		provisionCmd(g),
		putCmd(g),
		bootCountCmd(g),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration, applies flag overrides and builds the
// logger.
func (g *globals) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if g.configPath != "" {
		var err error
		if cfg, err = config.Load(g.configPath); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("image") {
		cfg.Device.Image = g.image
	}
	if cmd.Flags().Changed("bare") {
		cfg.Device.Board = !g.bare
	}
	if g.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.cfg = cfg

	zl, err := newZap(cfg.Log)
	if err != nil {
		return err
	}
	g.zl = zl
	g.log = logging.FromLogr(zapr.NewLogger(zl))
	return nil
}

func newZap(lc config.Log) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level := zapcore.InfoLevel
	switch lc.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "error":
		level = zapcore.ErrorLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// withDevice opens the device, runs fn and closes it again.
func (g *globals) withDevice(fn func(d *device) error) (err error) {
	d, err := openDevice(g.cfg, g.log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := d.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(d)
}
