package parser

import (
	"log/slog"
	"testing"

	"github.com/OCAP2/aoi/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(slog.Default(), "2.0.0", 100, "")
}

func TestNewParser(t *testing.T) {
	p := newTestParser()
	require.NotNil(t, p)
	assert.Equal(t, "", p.projection())
}

func TestParseRadius(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"integer", "10", 10, false},
		{"float", "7.5", 7.5, false},
		{"zero", "0", 0, false},
		{"quoted", `"3"`, 3, false},
		{"negative", "-1", 0, true},
		{"nan", "NaN", 0, true},
		{"inf", "inf", 0, true},
		{"non-numeric", "abc", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRadius(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetSession_SwitchesProjection(t *testing.T) {
	p := newTestParser()
	p.SetSession(&core.Session{Projection: ProjectionGeographic})
	assert.Equal(t, ProjectionGeographic, p.projection())

	p.SetSession(nil)
	assert.Equal(t, "", p.projection())
}

func TestParsePosition_Planar(t *testing.T) {
	p := newTestParser()
	pos, err := p.parsePosition("[1,2]")
	require.NoError(t, err)
	assert.Equal(t, core.Position2D{X: 1, Y: 2}, pos)
}

func TestParsePosition_Geographic(t *testing.T) {
	p := newTestParser()
	p.SetSession(&core.Session{Projection: ProjectionGeographic})

	pos, err := p.parsePosition("[1,0]")
	require.NoError(t, err)
	assert.InDelta(t, 111319.49, pos.X, 1)
	assert.InDelta(t, 0, pos.Y, 1e-6)

	_, err = p.parsePosition("[0,95]")
	assert.Error(t, err)
}

func TestParsePosition_RejectsNaN(t *testing.T) {
	p := newTestParser()
	_, err := p.parsePosition("[NaN,0]")
	assert.Error(t, err)
}
