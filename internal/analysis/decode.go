package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/lokiscope/lokiscope/pkg/models"
)

// maxLineBytes bounds a single NDJSON line. Loki caps line size well
// below this; anything larger is skipped and counted as malformed.
const maxLineBytes = 1 << 20

// DecodeBatch reads a batch of raw entries from r, accepting either a
// single JSON array or newline-delimited JSON objects without being
// told which. Malformed lines are skipped and counted, never fatal.
// Returns the decoded entries and the number of skipped records.
func DecodeBatch(r io.Reader) ([]models.RawEntry, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("reading input: %w", err)
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return []models.RawEntry{}, 0, nil
	}

	if trimmed[0] == '[' {
		var entries []models.RawEntry
		if err := json.Unmarshal(trimmed, &entries); err == nil {
			if entries == nil {
				entries = []models.RawEntry{}
			}
			return entries, 0, nil
		}
		// Fall through: some exports wrap NDJSON lines in brackets or
		// are truncated mid-array. Line scanning recovers what it can.
	}

	return decodeLines(data)
}

func decodeLines(data []byte) ([]models.RawEntry, int, error) {
	entries := []models.RawEntry{}
	skipped := 0

	for len(data) > 0 {
		line, rest, _ := bytes.Cut(data, []byte{'\n'})
		data = rest

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if len(line) > maxLineBytes {
			skipped++
			slog.Warn("skipping oversized record", "bytes", len(line))
			continue
		}
		var entry models.RawEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			skipped++
			slog.Warn("skipping malformed record", "error", err)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, skipped, nil
}
