package report

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-shock-simulator/internal/domain"
)

// TimestampLayout is the timestamp format of the exported log.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// Columns is the CSV header of the exported log.
var Columns = []string{
	"timestamp", "type", "name", "intensity", "chaos_factor",
	"state_before", "state_after", "is_mist",
}

// ErrMalformedLog is wrapped by every ReadLog parse failure.
var ErrMalformedLog = errors.New("malformed ceremony log")

// LogFile is the parsed content of an exported ceremony log.
type LogFile struct {
	RunID           string
	ThunderCount    int
	ThunderCap      int
	NetAccumulation float64 // as printed in the header, 3 decimals
	Events          []domain.LoggedEvent
}

// WriteLog writes the commented header block followed by one CSV row per event.
func WriteLog(w io.Writer, res domain.RunResult) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# GENTLE WEATHER CEREMONY LOG")
	fmt.Fprintln(bw, "# Mist → Storm (gentle thunder) → Clearing")
	fmt.Fprintln(bw, "# Safe for Ara and all beings")
	fmt.Fprintf(bw, "# Run: %s\n", res.RunID)
	fmt.Fprintf(bw, "# Thunder events: %d/%d\n", res.ThunderCount, res.ThunderCap)
	fmt.Fprintf(bw, "# Net accumulation: %+.3f\n\n", res.NetDisplacement)

	cw := csv.NewWriter(bw)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, ev := range res.Events {
		if err := cw.Write(formatRow(ev)); err != nil {
			return fmt.Errorf("write event row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return bw.Flush()
}

// ExportFile writes the ceremony log to path, replacing any existing file.
func ExportFile(path string, res domain.RunResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close log file: %w", cerr)
		}
	}()
	return WriteLog(f, res)
}

func formatRow(ev domain.LoggedEvent) []string {
	isMist := "FALSE"
	if ev.IsMist {
		isMist = "TRUE"
	}
	return []string{
		ev.Timestamp.Format(TimestampLayout),
		ev.CategoryKey,
		ev.DisplayName,
		formatFloat(ev.Intensity),
		formatFloat(ev.ChaosFactor),
		formatFloat(ev.StateBefore),
		formatFloat(ev.StateAfter),
		isMist,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// ReadLog parses a log produced by WriteLog. Timestamps are read as UTC.
func ReadLog(r io.Reader) (LogFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return LogFile{}, fmt.Errorf("read log: %w", err)
	}

	var lf LogFile
	body := data
	for len(body) > 0 {
		line, rest, _ := bytes.Cut(body, []byte("\n"))
		trimmed := strings.TrimSpace(string(line))
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			break
		}
		if err := parseHeaderLine(trimmed, &lf); err != nil {
			return LogFile{}, err
		}
		body = rest
	}

	cr := csv.NewReader(bytes.NewReader(body))
	cr.FieldsPerRecord = len(Columns)
	records, err := cr.ReadAll()
	if err != nil {
		return LogFile{}, fmt.Errorf("%w: %w", ErrMalformedLog, err)
	}
	if len(records) == 0 || strings.Join(records[0], ",") != strings.Join(Columns, ",") {
		return LogFile{}, fmt.Errorf("%w: missing column header", ErrMalformedLog)
	}

	for i, rec := range records[1:] {
		ev, err := parseRow(rec)
		if err != nil {
			return LogFile{}, fmt.Errorf("%w: row %d: %w", ErrMalformedLog, i+1, err)
		}
		lf.Events = append(lf.Events, ev)
	}
	return lf, nil
}

func parseHeaderLine(line string, lf *LogFile) error {
	text := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	key, value, ok := strings.Cut(text, ":")
	if !ok {
		return nil
	}
	value = strings.TrimSpace(value)
	switch key {
	case "Run":
		lf.RunID = value
	case "Thunder events":
		if _, err := fmt.Sscanf(value, "%d/%d", &lf.ThunderCount, &lf.ThunderCap); err != nil {
			return fmt.Errorf("%w: thunder header %q: %w", ErrMalformedLog, value, err)
		}
	case "Net accumulation":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: net accumulation header %q: %w", ErrMalformedLog, value, err)
		}
		lf.NetAccumulation = v
	}
	return nil
}

func parseRow(rec []string) (domain.LoggedEvent, error) {
	ts, err := time.Parse(TimestampLayout, rec[0])
	if err != nil {
		return domain.LoggedEvent{}, fmt.Errorf("timestamp: %w", err)
	}

	floats := make([]float64, 4)
	for i, col := range rec[3:7] {
		v, err := strconv.ParseFloat(col, 64)
		if err != nil {
			return domain.LoggedEvent{}, fmt.Errorf("%s: %w", Columns[3+i], err)
		}
		floats[i] = v
	}

	var isMist bool
	switch rec[7] {
	case "TRUE":
		isMist = true
	case "FALSE":
	default:
		return domain.LoggedEvent{}, fmt.Errorf("is_mist: unexpected %q", rec[7])
	}

	return domain.LoggedEvent{
		Timestamp:   ts,
		CategoryKey: rec[1],
		DisplayName: rec[2],
		Intensity:   floats[0],
		ChaosFactor: floats[1],
		StateBefore: floats[2],
		StateAfter:  floats[3],
		IsMist:      isMist,
	}, nil
}
