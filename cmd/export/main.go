// Export copies the builder tree of one zarr store into a new store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/robert-malhotra/go-zarrio/internal/config"
	"github.com/robert-malhotra/go-zarrio/store"
	"github.com/robert-malhotra/go-zarrio/zarrio"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var (
		configPath string
		linkData   bool
		noConsol   bool
		logLevel   string
	)
	flagSet := pflag.NewFlagSet("export", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a zarrio YAML config (default: $"+config.EnvVar+")")
	flagSet.BoolVar(&linkData, "link-data", true, "link arrays to the source instead of copying them")
	flagSet.BoolVar(&noConsol, "no-consolidate", false, "do not write .zmetadata after the export")
	flagSet.StringVar(&logLevel, "log-level", "", "override the configured log level")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: export [flags] <source> <destination>\n\n")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if flagSet.NArg() != 2 {
		flagSet.Usage()
		return fmt.Errorf("expected source and destination, got %d arguments", flagSet.NArg())
	}
	srcLoc, dstLoc := flagSet.Arg(0), flagSet.Arg(1)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		if _, err := config.ParseLevel(logLevel); err != nil {
			return err
		}
		cfg.LogLevel = logLevel
	}
	if flagSet.Changed("link-data") {
		cfg.LinkData = linkData
	}
	if noConsol {
		cfg.Consolidate = false
	}
	logger := cfg.Logger()

	src, err := zarrio.Open(srcLoc, string(store.ModeRead), cfg.SessionOptions(logger)...)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := zarrio.Open(dstLoc, string(store.ModeWrite), cfg.SessionOptions(logger)...)
	if err != nil {
		return err
	}
	defer dst.Close()

	if err := dst.Export(ctx, src, cfg.WriteOptions()...); err != nil {
		return fmt.Errorf("exporting %s to %s: %w", srcLoc, dstLoc, err)
	}
	fmt.Fprintf(out, "exported %s to %s\n", src.AbsPath(), dst.AbsPath())
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
