package typename

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsForeign(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name string
		want bool
	}{
		{"py.SPRegion", true},
		{"py.", true},
		{"TestNode", false},
		{"pyRegion", false},
		{"", false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, IsForeign(tc.name), "IsForeign(%q)", tc.name)
	}
}

func TestBareAndQualify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "SPRegion", Bare("py.SPRegion"))
	assert.Equal(t, "TestNode", Bare("TestNode"))
	assert.Equal(t, "nupic.regions.SPRegion", Qualify("nupic.regions", Bare("py.SPRegion")))
	assert.Equal(t, "SPRegion", Qualify("", "SPRegion"))
	assert.Equal(t, "py.SPRegion", Foreign("SPRegion"))
}
