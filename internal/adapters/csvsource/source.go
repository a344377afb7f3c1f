package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"

	"tubebatch/internal/core/domain"
)

const (
	colName       = "name"
	colVideoID    = "yt_id"
	colResolution = "resolution"
	colFPS        = "fps"
)

// dimensionResolutions maps WIDTHxHEIGHT source values to resolution labels.
var dimensionResolutions = map[string]domain.Resolution{
	"640x360":   domain.Resolution360p,
	"854x480":   domain.Resolution480p,
	"1280x720":  domain.Resolution720p,
	"1920x1080": domain.Resolution1080p,
	"2560x1440": domain.Resolution1440p,
	"3840x2160": domain.Resolution2160p,
}

// Source implements ports.JobSource for a CSV file with a header row.
type Source struct {
	path string
}

// NewSource creates a Source reading the CSV file at path.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Jobs reads every row of the file.
func (s *Source) Jobs(ctx context.Context) ([]domain.Job, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open job source %s: %w", s.path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads jobs from CSV data. Columns are located by header name.
func Parse(r io.Reader) ([]domain.Job, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("job source is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	jobs := make([]domain.Job, 0)
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}
		fps, err := NormalizeFPS(record[cols[colFPS]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		jobs = append(jobs, domain.Job{
			Index:      len(jobs),
			Filename:   strings.TrimSpace(record[cols[colName]]),
			VideoID:    ExtractVideoID(record[cols[colVideoID]]),
			Resolution: NormalizeResolution(record[cols[colResolution]]),
			FPS:        fps,
		})
	}
	return jobs, nil
}

func locateColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, 4)
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{colName, colVideoID, colResolution, colFPS} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return cols, nil
}

// NormalizeResolution maps "1920x1080" or "1080p" style values to a resolution label.
// Anything else is domain.ResolutionUnsupported.
func NormalizeResolution(raw string) domain.Resolution {
	v := strings.ToLower(strings.TrimSpace(raw))
	if res, ok := dimensionResolutions[v]; ok {
		return res
	}
	if h, ok := strings.CutSuffix(v, "p"); ok {
		if height, err := strconv.Atoi(h); err == nil {
			return domain.ResolutionFromHeight(height)
		}
	}
	return domain.ResolutionUnsupported
}

// NormalizeFPS parses a frame rate and rounds it to the nearest integer.
func NormalizeFPS(raw string) (int, error) {
	v := strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("invalid fps %q", raw)
	}
	return int(math.Round(f)), nil
}

// ExtractVideoID accepts a bare id, a watch URL or a youtu.be link.
func ExtractVideoID(raw string) string {
	v := strings.TrimSpace(raw)
	if !strings.Contains(v, "/") {
		return v
	}
	u, err := url.Parse(v)
	if err != nil {
		return v
	}
	if u.Host == "youtu.be" {
		return strings.TrimPrefix(u.Path, "/")
	}
	if id := u.Query().Get("v"); id != "" {
		return id
	}
	return v
}
