package parser

import (
	"testing"

	"github.com/OCAP2/aoi/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnter(t *testing.T) {
	p := newTestParser()

	cmd, err := p.ParseEnter([]string{`"alpha"`, `"[10.5,-3]"`, "7"})
	require.NoError(t, err)
	assert.Equal(t, "alpha", cmd.EntityID)
	assert.Equal(t, core.Position2D{X: 10.5, Y: -3}, cmd.Position)
	assert.Equal(t, 7.0, cmd.AOI)
}

func TestParseEnter_EscapedQuotesInID(t *testing.T) {
	p := newTestParser()

	cmd, err := p.ParseEnter([]string{`"crate ""B"""`, "[1,2]", "0"})
	require.NoError(t, err)
	assert.Equal(t, `crate "B"`, cmd.EntityID)
	assert.Zero(t, cmd.AOI)

	id, err := p.ParseLeave([]string{`"crate ""B"""`})
	require.NoError(t, err)
	assert.Equal(t, cmd.EntityID, id, "leave must address the same entity")
}

func TestParseEnter_Errors(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name string
		data []string
	}{
		{"too few args", []string{"a", "[1,2]"}},
		{"empty id", []string{`""`, "[1,2]", "5"}},
		{"bad position", []string{"a", "[1]", "5"}},
		{"bad radius", []string{"a", "[1,2]", "wide"}},
		{"negative radius", []string{"a", "[1,2]", "-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseEnter(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestParseMove(t *testing.T) {
	p := newTestParser()

	cmd, err := p.ParseMove([]string{"7", "[60,60]"})
	require.NoError(t, err)
	assert.Equal(t, "7", cmd.EntityID)
	assert.Equal(t, core.Position2D{X: 60, Y: 60}, cmd.Position)

	_, err = p.ParseMove([]string{"7"})
	assert.Error(t, err)

	_, err = p.ParseMove([]string{"7", "60;60"})
	assert.Error(t, err)
}

func TestParseLeaveAndQuery(t *testing.T) {
	p := newTestParser()

	id, err := p.ParseLeave([]string{`"bravo"`})
	require.NoError(t, err)
	assert.Equal(t, "bravo", id)

	id, err = p.ParseQuery([]string{"charlie"})
	require.NoError(t, err)
	assert.Equal(t, "charlie", id)

	_, err = p.ParseLeave(nil)
	assert.Error(t, err)
	_, err = p.ParseQuery([]string{""})
	assert.Error(t, err)
}

func TestParseRadiusCommand(t *testing.T) {
	p := newTestParser()

	cmd, err := p.ParseRadius([]string{"a", "12.5"})
	require.NoError(t, err)
	assert.Equal(t, RadiusCommand{EntityID: "a", AOI: 12.5}, cmd)

	_, err = p.ParseRadius([]string{"a"})
	assert.Error(t, err)
}
