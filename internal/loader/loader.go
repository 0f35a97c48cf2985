// Package loader discovers daily usage log files and reads their records.
package loader

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/j-veylop/blockrun-report/internal/logger"
	"github.com/j-veylop/blockrun-report/internal/models"
)

const (
	filePrefix = "usage-"
	fileSuffix = ".jsonl"
)

// maxLineSize bounds a single JSONL line. Longer lines are skipped.
var maxLineSize = 4 * 1024 * 1024

var (
	// ErrNotDirectory is returned when the log path is not a directory.
	ErrNotDirectory = errors.New("not a directory")
	// ErrNoUsageFiles is returned when a directory holds no usage-*.jsonl files.
	ErrNoUsageFiles = errors.New("no usage-*.jsonl files found")
)

// DailyFile is one usage-YYYY-MM-DD.jsonl file.
type DailyFile struct {
	Day  string
	Path string
}

// DaySet holds the records logged on one day.
type DaySet struct {
	Day     string
	Records []models.UsageRecord
}

// Source yields per-day record sets in enumeration order.
type Source interface {
	Days() ([]DaySet, error)
	Describe() string
}

// IsUsageFile reports whether name looks like a daily usage log.
func IsUsageFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, filePrefix) && strings.HasSuffix(base, fileSuffix)
}

// FindDailyFiles returns the usage files in dir sorted by name.
func FindDailyFiles(dir string) ([]DailyFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat log directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q: %w", dir, ErrNotDirectory)
	}

	matches, err := filepath.Glob(filepath.Join(dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list usage files: %w", err)
	}
	sort.Strings(matches)

	files := make([]DailyFile, 0, len(matches))
	for _, path := range matches {
		name := filepath.Base(path)
		day := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		files = append(files, DailyFile{Day: day, Path: path})
	}
	return files, nil
}

// LoadJSONL reads one record per line. Blank lines, lines longer than
// maxLineSize and lines that are not JSON objects are skipped.
func LoadJSONL(path string) ([]models.UsageRecord, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the enumerated log directory
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var records []models.UsageRecord
	r := bufio.NewReaderSize(f, 64*1024)

	for lineNo := 1; ; lineNo++ {
		raw, tooLong, err := readLine(r)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		switch line := strings.TrimSpace(string(raw)); {
		case tooLong:
			logger.Warn("skipping oversized line", "file", path, "line", lineNo, "limit", maxLineSize)
		case line == "":
		default:
			if record, ok := DecodeLine(line); ok {
				records = append(records, record)
			} else {
				logger.Debug("skipping malformed line", "file", path, "line", lineNo)
			}
		}

		if err != nil {
			return records, nil
		}
	}
}

// readLine returns the next line including its terminator. A line longer than
// maxLineSize is consumed and reported as tooLong with no content.
func readLine(r *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxLineSize+1 {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, tooLong, err
	}
}

// DecodeLine converts a single JSONL line into a record.
func DecodeLine(line string) (models.UsageRecord, bool) {
	fields, ok := decodeObject(strings.TrimSpace(line))
	if !ok {
		return models.UsageRecord{}, false
	}
	return models.RecordFromFields(fields), true
}

func decodeObject(line string) (map[string]any, bool) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

// Directory reads day sets from a directory of usage-*.jsonl files.
type Directory struct {
	Path string
}

// NewDirectory returns a Source over the given log directory.
func NewDirectory(path string) *Directory {
	return &Directory{Path: path}
}

// Describe returns the directory path.
func (d *Directory) Describe() string {
	return d.Path
}

// Days loads every daily file in file-enumeration order.
func (d *Directory) Days() ([]DaySet, error) {
	files, err := FindDailyFiles(d.Path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", d.Path, ErrNoUsageFiles)
	}

	sets := make([]DaySet, 0, len(files))
	for _, file := range files {
		records, err := LoadJSONL(file.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded daily file", "day", file.Day, "entries", len(records))
		sets = append(sets, DaySet{Day: file.Day, Records: records})
	}
	return sets, nil
}
