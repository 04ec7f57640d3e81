package blossom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCheckCompatibility covers the supported-range check across
// release, prerelease and unparseable server versions.
func TestCheckCompatibility(t *testing.T) {
	tests := []struct {
		name          string
		serverVersion string
		want          CompatibilityStatus
	}{
		{"exact lower bound", "1.0.0", Compatible},
		{"patch release", "1.2.3", Compatible},
		{"minor release", "1.5.0", Compatible},
		{"prerelease of in-range version", "1.5.0-beta.1", Compatible},
		{"with v prefix", "v1.1.0", Compatible},
		{"below range", "0.9.0", Incompatible},
		{"next major", "2.0.0", Incompatible},
		{"far future", "3.1.4", Incompatible},
		{"empty", "", Unknown},
		{"garbage", "not-a-version", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckCompatibility(tt.serverVersion)

			assert.Equal(t, tt.want, result.Status)
			assert.Equal(t, tt.serverVersion, result.ServerVersion)
			assert.Equal(t, Version, result.SDKVersion)
			assert.Equal(t, APIVersionRange, result.SupportedRange)
			assert.NotEmpty(t, result.Message)
			assert.Equal(t, tt.want == Compatible, result.IsCompatible())
		})
	}
}

// TestIsCompatible verifies the boolean shortcut.
func TestIsCompatible(t *testing.T) {
	assert.True(t, IsCompatible("1.0.0"))
	assert.False(t, IsCompatible("2.0.0"))
	assert.False(t, IsCompatible("unparseable"))
}

// TestMustBeCompatible verifies the panicking startup check.
func TestMustBeCompatible(t *testing.T) {
	assert.NotPanics(t, func() { MustBeCompatible("1.2.0") })
	assert.Panics(t, func() { MustBeCompatible("2.0.0") })
	assert.Panics(t, func() { MustBeCompatible("garbage") })
}

// TestCompatibilityStatus_String verifies the status labels.
func TestCompatibilityStatus_String(t *testing.T) {
	assert.Equal(t, "compatible", Compatible.String())
	assert.Equal(t, "incompatible", Incompatible.String())
	assert.Equal(t, "unknown", Unknown.String())
}

// TestVersionConstants verifies the version constants themselves parse.
func TestVersionConstants(t *testing.T) {
	require.NotEmpty(t, Version)
	require.NotEmpty(t, APIVersion)
	assert.True(t, IsCompatible(APIVersion), "the targeted API version must be inside the supported range")
}
