package parser

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync/atomic"

	"github.com/OCAP2/aoi/internal/geo"
	"github.com/OCAP2/aoi/internal/util"
	"github.com/OCAP2/aoi/pkg/core"
)

// ProjectionGeographic marks sessions whose positions arrive as [lon,lat].
const ProjectionGeographic = "4326"

// Parser provides pure []string -> command struct conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger  *slog.Logger
	session atomic.Pointer[core.Session]

	// Static config set at creation time
	extensionVersion string
	defaultRange     float64
	defaultProj      string
}

// NewParser creates a new parser. defaultRange and defaultProj seed sessions
// that do not override them. A nil logger discards.
func NewParser(logger *slog.Logger, extensionVersion string, defaultRange float64, defaultProj string) *Parser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Parser{
		logger:           logger,
		extensionVersion: extensionVersion,
		defaultRange:     defaultRange,
		defaultProj:      defaultProj,
	}
}

// SetSession sets the current session for projection lookups.
func (p *Parser) SetSession(s *core.Session) {
	p.session.Store(s)
}

func (p *Parser) projection() string {
	s := p.session.Load()
	if s == nil {
		return p.defaultProj
	}
	return s.Projection
}

// fixArgs trims quotes and collapses escaped quotes in place.
func fixArgs(data []string) {
	for i, v := range data {
		data[i] = util.Unquote(v)
	}
}

func requireArgs(data []string, n int, command string) error {
	if len(data) < n {
		return fmt.Errorf("%s: expected %d args, got %d", command, n, len(data))
	}
	return nil
}

func parseEntityID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty entity id")
	}
	return s, nil
}

// parsePosition reads "[x,y]" and projects it when the session is geographic.
func (p *Parser) parsePosition(s string) (core.Position2D, error) {
	pos, err := geo.Position2DFromString(s)
	if err != nil {
		return pos, err
	}
	if p.projection() == ProjectionGeographic {
		return geo.Project4326To3857(pos)
	}
	return pos, nil
}

func parseRadius(s string) (float64, error) {
	r, err := util.ParseFloat(s)
	if err != nil {
		return 0, fmt.Errorf("error parsing aoi: %w", err)
	}
	if r < 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, fmt.Errorf("error parsing aoi: %s is not a non-negative number", strconv.Quote(s))
	}
	return r, nil
}
