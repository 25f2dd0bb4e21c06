package vectorfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vk/regionfactory/internal/ctxlog"
	"github.com/vk/regionfactory/internal/params"
	"github.com/vk/regionfactory/internal/region"
	"github.com/vk/regionfactory/internal/state"
)

const effectorSection = "vectorfile.effector"

// ErrNoOutputFile is returned by Compute when outputFile is unset.
var ErrNoOutputFile = errors.New("vectorfile: no output file")

// Effector appends each input vector to OutputFile as one line.
type Effector struct {
	owner string

	OutputFile string `msgpack:"outputFile"`
	Written    int    `msgpack:"written"`
}

var _ region.Serializer = (*Effector)(nil)

// NewEffector builds an Effector from parsed parameters.
func NewEffector(ctx context.Context, p params.Map, owner region.Owner) (*Effector, error) {
	e := &Effector{owner: ownerName(owner)}
	if err := p.Decode("outputFile", &e.OutputFile); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Vector effector created.", "owner", e.owner, "path", e.OutputFile)
	return e, nil
}

// DeserializeEffector restores an Effector written by Serialize.
func DeserializeEffector(_ context.Context, b *state.Bundle, owner region.Owner) (*Effector, error) {
	if b == nil {
		return nil, fmt.Errorf("%s: no state bundle", EffectorType)
	}
	e := &Effector{}
	if err := b.GetValue(effectorSection, e); err != nil {
		return nil, err
	}
	e.owner = ownerName(owner)
	return e, nil
}

// Type implements region.Impl.
func (e *Effector) Type() string { return EffectorType }

// Compute appends vec to the output file.
func (e *Effector) Compute(vec []float64) error {
	if e.OutputFile == "" {
		return ErrNoOutputFile
	}
	f, err := os.OpenFile(e.OutputFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening output file: %w", err)
	}
	if _, err := f.WriteString(FormatVector(vec) + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("writing output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	e.Written++
	return nil
}

// Serialize implements region.Serializer.
func (e *Effector) Serialize(b *state.Bundle) error {
	return b.PutValue(effectorSection, e)
}

// FormatVector renders vec in the format ReadVectors parses.
func FormatVector(vec []float64) string {
	fields := make([]string, len(vec))
	for i, v := range vec {
		fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(fields, " ")
}
