package vectorfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/vk/regionfactory/internal/ctxlog"
	"github.com/vk/regionfactory/internal/params"
	"github.com/vk/regionfactory/internal/region"
	"github.com/vk/regionfactory/internal/state"
)

const sensorSection = "vectorfile.sensor"

// ErrNoVectors is returned by Compute before any vectors are loaded.
var ErrNoVectors = errors.New("vectorfile: no vectors loaded")

// Sensor emits the vectors of a file in order, wrapping around at the end.
type Sensor struct {
	owner string

	DataFile    string      `msgpack:"dataFile"`
	RepeatCount int         `msgpack:"repeatCount"`
	Position    int         `msgpack:"position"`
	Emitted     int         `msgpack:"emitted"`
	Vectors     [][]float64 `msgpack:"vectors"`
}

var _ region.Serializer = (*Sensor)(nil)

// NewSensor builds a Sensor and loads dataFile if one is given.
func NewSensor(ctx context.Context, p params.Map, owner region.Owner) (*Sensor, error) {
	s := &Sensor{owner: ownerName(owner)}
	if err := p.Decode("dataFile", &s.DataFile); err != nil {
		return nil, err
	}
	if err := p.Decode("repeatCount", &s.RepeatCount); err != nil {
		return nil, err
	}
	if err := p.Decode("position", &s.Position); err != nil {
		return nil, err
	}
	if s.RepeatCount < 1 {
		return nil, fmt.Errorf("repeatCount must be at least 1, got %d", s.RepeatCount)
	}
	if s.Position < 0 {
		return nil, fmt.Errorf("position must not be negative, got %d", s.Position)
	}
	if s.DataFile != "" {
		position := s.Position
		if err := s.LoadFile(ctx, s.DataFile); err != nil {
			return nil, err
		}
		s.Position = position
	}
	return s, nil
}

// DeserializeSensor restores a Sensor written by Serialize, vectors included.
func DeserializeSensor(ctx context.Context, b *state.Bundle, owner region.Owner) (*Sensor, error) {
	if b == nil {
		return nil, fmt.Errorf("%s: no state bundle", SensorType)
	}
	s := &Sensor{}
	if err := b.GetValue(sensorSection, s); err != nil {
		return nil, err
	}
	s.owner = ownerName(owner)
	ctxlog.FromContext(ctx).Debug("Vector sensor restored.", "owner", s.owner, "vectors", len(s.Vectors))
	return s, nil
}

// Type implements region.Impl.
func (s *Sensor) Type() string { return SensorType }

// LoadFile replaces the loaded vectors with those in path and rewinds.
func (s *Sensor) LoadFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening vector file: %w", err)
	}
	defer f.Close()

	vectors, err := ReadVectors(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	s.DataFile = path
	s.Vectors = vectors
	s.Position, s.Emitted = 0, 0
	ctxlog.FromContext(ctx).Debug("Vector file loaded.", "owner", s.owner, "path", path, "vectors", len(vectors))
	return nil
}

// Compute returns the current vector. After RepeatCount emissions the
// sensor moves on to the next one.
func (s *Sensor) Compute() ([]float64, error) {
	if len(s.Vectors) == 0 {
		return nil, ErrNoVectors
	}
	pos := s.Position % len(s.Vectors)
	out := slices.Clone(s.Vectors[pos])
	s.Emitted++
	if s.Emitted >= s.RepeatCount {
		s.Emitted = 0
		pos = (pos + 1) % len(s.Vectors)
	}
	s.Position = pos
	return out, nil
}

// Serialize implements region.Serializer.
func (s *Sensor) Serialize(b *state.Bundle) error {
	return b.PutValue(sensorSection, s)
}

// ReadVectors parses one whitespace-separated vector per line. Blank lines
// and lines starting with '#' are skipped.
func ReadVectors(r io.Reader) ([][]float64, error) {
	var vectors [][]float64
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		vec := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			vec[i] = v
		}
		vectors = append(vectors, vec)
	}
	return vectors, sc.Err()
}
