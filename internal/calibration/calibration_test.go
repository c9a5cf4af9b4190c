package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromReference(t *testing.T) {
	c, err := FromReference(100, 250, "µm", 40)
	require.NoError(t, err)

	assert.InDelta(t, 0.4, c.PixelSize, 1e-12)
	assert.Equal(t, "µm", c.Unit)
	assert.Equal(t, 40.0, c.Magnification)
	assert.Equal(t, "20.00 µm", c.Label(50, 2))
}

func TestFromReference_Invalid(t *testing.T) {
	_, err := FromReference(0, 100, "µm", 0)
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = FromReference(10, -1, "µm", 0)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestFromReference_DefaultsUnit(t *testing.T) {
	c, err := FromReference(1, 1, "  ", 0)
	require.NoError(t, err)
	assert.Equal(t, "µm", c.Unit)
}

func TestIdentityAndZeroValue(t *testing.T) {
	assert.Equal(t, "5.00 px", Identity().Label(5, 2))
	assert.Equal(t, "5.0 px", Calibration{}.Label(5, 1))
}

func TestParseScaleLabel(t *testing.T) {
	tests := []struct {
		text     string
		wantV    float64
		wantUnit string
		wantErr  bool
	}{
		{"50 µm", 50, "µm", false},
		{"100um", 100, "µm", false},
		{"  0.5 mm\n", 0.5, "mm", false},
		{"200 NM", 200, "nm", false},
		{"Scale: 2,5 microns", 2.5, "µm", false},
		{"no digits here", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			v, unit, err := ParseScaleLabel(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantV, v)
			assert.Equal(t, tt.wantUnit, unit)
		})
	}
}
