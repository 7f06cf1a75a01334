// Package lookup turns a single-column address list into a lookup-table
// source fragment, one `["<address>"] = true,` entry per line.
package lookup

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Sternrassler/arweave-whitelist/pkg/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultInput is the address list read by the convert tool.
	DefaultInput = "fcfs.csv"

	// DefaultOutput is the fragment written by the convert tool.
	DefaultOutput = "FCFS-Processed.txt"
)

// Entry renders one table entry, newline included.
func Entry(address string) string {
	return `["` + address + `"] = true,` + "\n"
}

// ReadAddresses returns the first column of every CSV record in r.
func ReadAddresses(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var addrs []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		addrs = append(addrs, record[0])
	}
	return addrs, nil
}

// WriteTable writes one entry per address to w.
func WriteTable(w io.Writer, addrs []string) error {
	bw := bufio.NewWriter(w)
	for _, addr := range addrs {
		if _, err := bw.WriteString(Entry(addr)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Converter reads an address list and writes the table fragment.
type Converter struct {
	logger zerolog.Logger
}

// NewConverter creates a converter.
func NewConverter() *Converter {
	return &Converter{
		logger: log.With().Str("component", "lookup").Logger(),
	}
}

// Convert reads inputPath and writes the fragment to outputPath.
//
// The input is read completely before the output is touched, and the output
// is replaced atomically, so a failed run never leaves a partial file. A
// missing input is reported as errs.KindNotFound; everything else as
// errs.KindUnexpected.
func (c *Converter) Convert(inputPath, outputPath string) (int, error) {
	addrs, err := c.read(inputPath)
	if err != nil {
		return 0, err
	}

	if err := writeFileAtomic(outputPath, addrs); err != nil {
		return 0, errs.New(errs.KindUnexpected, "write output", err)
	}

	c.logger.Info().
		Str("input", inputPath).
		Str("output", outputPath).
		Int("entries", len(addrs)).
		Msg("Processing complete")

	return len(addrs), nil
}

func (c *Converter) read(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &errs.Error{Kind: errs.KindNotFound, Op: "read input", Payload: path, Err: err}
		}
		return nil, errs.New(errs.KindUnexpected, "read input", err)
	}
	defer f.Close()

	addrs, err := ReadAddresses(f)
	if err != nil {
		return nil, errs.New(errs.KindUnexpected, "read input", err)
	}
	return addrs, nil
}

// writeFileAtomic writes the table to a temp file beside path and renames it
// into place.
func writeFileAtomic(path string, addrs []string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := WriteTable(tmp, addrs); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
