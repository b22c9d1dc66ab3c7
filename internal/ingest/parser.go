// Package ingest parses vendor datalogger text files and imports their
// readings into the store.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// The datalogger grammar: a battery-voltage section and a data section,
// each delimited by marker lines. The data section is a comma-separated
// table whose first column is DATE.
const (
	vbattStart = "[INIZIO VBATT]"
	vbattEnd   = "[FINE VBATT]"
	dataStart  = "[INIZIO DATI]"
	dataEnd    = "[FINE DATI]"

	// DateColumn is the header name of the timestamp column.
	DateColumn = "DATE"

	// TimestampLayout is the datalogger timestamp format, e.g.
	// "01/01/2024 00.00".
	TimestampLayout = "02/01/2006 15.04"
)

// ErrMissingDataSection means the file has no parseable data block at
// all; nothing can be imported from it.
var ErrMissingDataSection = errors.New("missing [INIZIO DATI]/[FINE DATI] section")

// File is the parsed output contract: timestamped named values plus an
// optional battery voltage.
type File struct {
	VBatt   *float64
	Columns []string
	Rows    []Row
}

// Row is one data line keyed by header name. The timestamp is kept as
// the raw string; the importer decides what to do with rows that fail to
// parse.
type Row struct {
	Fields map[string]string
}

// Parse reads a datalogger file. A missing or malformed VBATT section is
// logged and tolerated; a missing data section is an error.
func Parse(r io.Reader, logger *zap.Logger) (*File, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read datalogger file: %w", err)
	}
	text := string(content)

	f := &File{}

	if raw, ok := section(text, vbattStart, vbattEnd); ok {
		// The section sometimes carries a trailing comma.
		cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
		if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
			f.VBatt = &v
			logger.Info("Parsed VBATT value", zap.Float64("vbatt", v))
		} else {
			logger.Warn("Could not parse VBATT section", zap.String("raw", raw))
		}
	} else {
		logger.Warn("VBATT section missing")
	}

	raw, ok := section(text, dataStart, dataEnd)
	if !ok {
		return nil, ErrMissingDataSection
	}
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, ErrMissingDataSection
	}

	for _, h := range strings.Split(lines[0], ",") {
		if h = strings.TrimSpace(h); h != "" {
			f.Columns = append(f.Columns, h)
		}
	}

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := strings.Split(line, ",")
		fields := make(map[string]string, len(f.Columns))
		for i, col := range f.Columns {
			if i < len(values) {
				fields[col] = strings.TrimSpace(values[i])
			}
		}
		f.Rows = append(f.Rows, Row{Fields: fields})
	}

	logger.Info("Parsed datalogger file",
		zap.Int("columns", len(f.Columns)),
		zap.Int("rows", len(f.Rows)),
	)
	return f, nil
}

func section(text, start, end string) (string, bool) {
	i := strings.Index(text, start)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(start):]
	j := strings.Index(rest, end)
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}
