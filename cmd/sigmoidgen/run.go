package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/kula-app/sigmoid-lut/internal/config"
	"github.com/kula-app/sigmoid-lut/internal/logging"
	"github.com/kula-app/sigmoid-lut/internal/lut"
	"github.com/kula-app/sigmoid-lut/internal/svpkg"
)

// The run function is like the main function, except that it takes in operating system fundamentals as arguments, and returns an error.
//
// If the run function finishes without an error, the package file was written (and verified, unless disabled).
// If the run function returns an error, the output file must not be trusted.
func run(ctx context.Context, args []string, getenv func(key string) string, stdout io.Writer) error {
	// Parse command-line flags
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	configPath := flags.String("config", "", "Path to a YAML configuration file (defaults reproduce sigmoid_lut.sv)")
	outputPath := flags.String("out", "", "Override the output file path")
	size := flags.Int("size", 0, "Override the number of table entries (must be positive)")
	verify := flags.Bool("verify", true, "Re-read the written file and compare it with the computed table")
	if err := flags.Parse(args[1:]); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	// Abort cleanly on Ctrl+C before the output file is touched
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	level, err := logging.ParseLevel(getenv("LOG_LEVEL"))
	if err != nil {
		return err
	}
	logger := slog.New(logging.NewTerminalHandler(os.Stderr, level))

	// Load generator configuration
	cfg := config.DefaultConfig()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			return err
		}
	}
	if *outputPath != "" {
		cfg.OutputPath = *outputPath
	}
	sizeSet := false
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "size" {
			sizeSet = true
		}
	})
	if sizeSet {
		if *size <= 0 {
			return fmt.Errorf("size must be positive, got %d", *size)
		}
		cfg.Size = *size
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Info("generator configuration loaded",
		"size", cfg.Size,
		"domain_min", cfg.DomainMin,
		"domain_max", cfg.DomainMax,
		"scale", cfg.Scale,
		"width", cfg.Width,
		"output", cfg.OutputPath)

	// 1. Compute the table
	table, err := lut.NewGenerator(logger).Generate(cfg)
	if err != nil {
		return fmt.Errorf("failed to generate table: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("generation interrupted: %w", err)
	}

	// 2. Format and write the package
	layout := svpkg.LayoutFromConfig(cfg)
	written, err := svpkg.WriteFile(cfg.OutputPath, layout, table.Values())
	if err != nil {
		return err
	}

	logger.Info("package written",
		"path", cfg.OutputPath,
		"entries", table.Len(),
		"bytes", written,
		"size", humanize.Bytes(uint64(written)))

	// 3. Check that the file decodes back to the computed table
	if *verify {
		pkg, err := svpkg.ReadFile(cfg.OutputPath)
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		if err := svpkg.Verify(pkg, layout, table.Values()); err != nil {
			return fmt.Errorf("verification failed for %s: %w", cfg.OutputPath, err)
		}
		logger.Debug("package verified", "path", cfg.OutputPath)
	}

	fmt.Fprintf(stdout, "Sigmoid LUT generated and written to %s\n", cfg.OutputPath)
	return nil
}
