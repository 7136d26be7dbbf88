package location

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/soundfence/internal/geofence"
)

// Source streams observer positions.
//
// The position channel is closed when the source is exhausted, fails, or ctx ends.
// At most one error is delivered on the error channel, which is closed afterwards.
type Source interface {
	Positions(ctx context.Context) (<-chan geofence.Position, <-chan error)
}

// StaticSource replays a fixed list of positions.
type StaticSource []geofence.Position

func (s StaticSource) Positions(ctx context.Context) (<-chan geofence.Position, <-chan error) {
	out := make(chan geofence.Position)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(out)

		for _, p := range s {
			select {
			case out <- p:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()

	return out, errc
}

// FileSource reads positions from a CSV file of "latitude,longitude" rows.
//
// An optional header row is skipped, lines starting with # are comments, and extra columns are ignored.
type FileSource struct {
	Path string
}

func (f FileSource) Positions(ctx context.Context) (<-chan geofence.Position, <-chan error) {
	out := make(chan geofence.Position)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(out)

		file, err := os.Open(f.Path)
		if err != nil {
			errc <- fmt.Errorf("failed to open positions file: %w", err)
			return
		}
		defer file.Close()

		if err := ReadPositions(ctx, file, out); err != nil {
			errc <- fmt.Errorf("%s: %w", f.Path, err)
		}
	}()

	return out, errc
}

// ErrMalformedPosition marks a CSV row that is not two numbers.
var ErrMalformedPosition = errors.New("malformed position")

// ReadPositions parses CSV rows from r and sends each position on out, stopping at the first bad row.
func ReadPositions(ctx context.Context, r io.Reader, out chan<- geofence.Position) error {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPosition, err)
		}

		line, _ := reader.FieldPos(0)

		if first {
			first = false
			if isHeader(record) {
				continue
			}
		}

		pos, err := parsePosition(record)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		select {
		case out <- pos:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(record[0])) {
	case "lat", "latitude":
		return true
	}
	return false
}

func parsePosition(record []string) (geofence.Position, error) {
	if len(record) < 2 {
		return geofence.Position{}, fmt.Errorf("%w: want latitude,longitude, got %d field(s)", ErrMalformedPosition, len(record))
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	if err != nil {
		return geofence.Position{}, fmt.Errorf("%w: latitude %q", ErrMalformedPosition, record[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return geofence.Position{}, fmt.Errorf("%w: longitude %q", ErrMalformedPosition, record[1])
	}

	return geofence.Position{Latitude: lat, Longitude: lon}, nil
}

// Collect drains src into a slice, returning the source's error if any.
func Collect(ctx context.Context, src Source) ([]geofence.Position, error) {
	positions, errc := src.Positions(ctx)

	var out []geofence.Position
	for p := range positions {
		out = append(out, p)
	}
	return out, <-errc
}
