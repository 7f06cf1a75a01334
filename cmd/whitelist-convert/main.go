// Command whitelist-convert turns the address list in fcfs.csv into a
// lookup-table fragment in FCFS-Processed.txt.
package main

import (
	"fmt"
	"os"

	"github.com/Sternrassler/arweave-whitelist/internal/config"
	"github.com/Sternrassler/arweave-whitelist/pkg/errs"
	"github.com/Sternrassler/arweave-whitelist/pkg/logging"
	"github.com/Sternrassler/arweave-whitelist/pkg/lookup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	os.Exit(run(cfg))
}

func run(cfg config.Config) int {
	logger := logging.NewLogger("whitelist-convert")

	n, err := lookup.NewConverter().Convert(cfg.InputFile, cfg.OutputFile)
	if err != nil {
		event := logger.Error().
			Str("error_kind", string(errs.KindOf(err))).
			Str("input", cfg.InputFile).
			Err(err)
		if errs.KindOf(err) == errs.KindNotFound {
			event.Msg("Input file not found")
		} else {
			event.Msg("Conversion failed")
		}
		return 1
	}

	logger.Info().
		Int("entries", n).
		Str("output", cfg.OutputFile).
		Msg("Output written")
	return 0
}
