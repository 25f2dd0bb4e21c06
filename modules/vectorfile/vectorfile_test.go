package vectorfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/regionfactory/internal/params"
	"github.com/vk/regionfactory/internal/region"
	"github.com/vk/regionfactory/internal/registry"
	"github.com/vk/regionfactory/internal/spec"
	"github.com/vk/regionfactory/internal/state"
)

func parse(t *testing.T, s *spec.Spec, raw string) params.Map {
	t.Helper()
	p, err := params.YAMLParser{}.Parse(raw, s, s.Type, "vf")
	require.NoError(t, err)
	return p
}

func writeVectors(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectors.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadVectors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		want    [][]float64
		wantErr string
	}{
		{name: "empty", input: "", want: nil},
		{name: "skips blanks and comments", input: "# header\n1 2 3\n\n  4\t5 6  \n", want: [][]float64{{1, 2, 3}, {4, 5, 6}}},
		{name: "bad number", input: "1 2\n3 x\n", wantErr: "line 2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ReadVectors(strings.NewReader(tc.input))
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSensor_ComputeRepeatsAndWraps(t *testing.T) {
	t.Parallel()
	// Arrange
	path := writeVectors(t, "1 1\n2 2\n")
	ctx := context.Background()
	s, err := NewSensor(ctx, parse(t, SensorSpec(), "{dataFile: "+path+", repeatCount: 2}"), region.NamedOwner("vf"))
	require.NoError(t, err)

	// Act
	var got [][]float64
	for range 5 {
		v, err := s.Compute()
		require.NoError(t, err)
		got = append(got, v)
	}

	// Assert
	assert.Equal(t, [][]float64{{1, 1}, {1, 1}, {2, 2}, {2, 2}, {1, 1}}, got)
}

func TestSensor_StartsAtPosition(t *testing.T) {
	t.Parallel()
	path := writeVectors(t, "1\n2\n3\n")
	s, err := NewSensor(context.Background(), parse(t, SensorSpec(), "{dataFile: "+path+", position: 2}"), nil)
	require.NoError(t, err)

	v, err := s.Compute()

	require.NoError(t, err)
	assert.Equal(t, []float64{3}, v)
}

func TestSensor_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := NewSensor(ctx, parse(t, SensorSpec(), "{repeatCount: 0}"), nil)
	require.ErrorContains(t, err, "repeatCount")

	_, err = NewSensor(ctx, parse(t, SensorSpec(), "{dataFile: /does/not/exist}"), nil)
	require.ErrorContains(t, err, "opening vector file")

	s, err := NewSensor(ctx, parse(t, SensorSpec(), ""), nil)
	require.NoError(t, err)
	_, err = s.Compute()
	require.ErrorIs(t, err, ErrNoVectors)
}

func TestSensor_SerializeRoundTrip(t *testing.T) {
	t.Parallel()
	// Arrange
	path := writeVectors(t, "1\n2\n3\n")
	ctx := context.Background()
	s, err := NewSensor(ctx, parse(t, SensorSpec(), "{dataFile: "+path+"}"), nil)
	require.NoError(t, err)
	_, err = s.Compute()
	require.NoError(t, err)
	b := state.New()
	require.NoError(t, s.Serialize(b))
	require.NoError(t, os.Remove(path))

	// Act
	restored, err := DeserializeSensor(ctx, b, region.NamedOwner("vf2"))

	// Assert
	require.NoError(t, err)
	v, err := restored.Compute()
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, v, "restored sensor continues where it left off")
}

func TestEffector_AppendsLines(t *testing.T) {
	t.Parallel()
	// Arrange
	out := filepath.Join(t.TempDir(), "out.txt")
	e, err := NewEffector(context.Background(), parse(t, EffectorSpec(), "{outputFile: "+out+"}"), nil)
	require.NoError(t, err)

	// Act
	require.NoError(t, e.Compute([]float64{1, 2.5}))
	require.NoError(t, e.Compute([]float64{-3}))

	// Assert
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "1 2.5\n-3\n", string(data))
	assert.Equal(t, 2, e.Written)

	back, err := ReadVectors(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2.5}, {-3}}, back)
}

func TestEffector_NoOutputFile(t *testing.T) {
	t.Parallel()
	e, err := NewEffector(context.Background(), parse(t, EffectorSpec(), ""), nil)
	require.NoError(t, err)

	require.ErrorIs(t, e.Compute([]float64{1}), ErrNoOutputFile)
}

func TestEffector_SerializeRoundTrip(t *testing.T) {
	t.Parallel()
	e := &Effector{OutputFile: "/tmp/x.txt", Written: 7}
	b := state.New()
	require.NoError(t, e.Serialize(b))

	restored, err := DeserializeEffector(context.Background(), b, nil)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.txt", restored.OutputFile)
	assert.Equal(t, 7, restored.Written)
}

func TestModule_RegistersBoth(t *testing.T) {
	t.Parallel()
	r := registry.New()

	(&Module{}).Register(r)

	assert.Equal(t, []string{EffectorType, SensorType}, r.Names())
	assert.Equal(t, SensorType, SensorSpec().Type)
	assert.Equal(t, EffectorType, EffectorSpec().Type)
}
