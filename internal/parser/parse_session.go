package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/OCAP2/aoi/internal/util"
	"github.com/OCAP2/aoi/pkg/core"
	"github.com/google/uuid"
)

// ParseSession parses [name, maxRange?, projection?] into a new session.
// Missing or empty optional args fall back to the parser defaults.
// NO storage operations, NO scene construction.
func (p *Parser) ParseSession(data []string) (core.Session, error) {
	var s core.Session
	if err := requireArgs(data, 1, "session"); err != nil {
		return s, err
	}
	fixArgs(data)

	s.Name = data[0]
	if s.Name == "" {
		return s, fmt.Errorf("empty session name")
	}
	s.UUID = uuid.NewString()
	s.StartTime = time.Now()
	s.ExtensionVersion = p.extensionVersion
	s.MaxRange = p.defaultRange
	s.Projection = p.defaultProj

	if len(data) > 1 && data[1] != "" {
		r, err := util.ParseFloat(data[1])
		if err != nil {
			return s, fmt.Errorf("error parsing max range: %w", err)
		}
		s.MaxRange = r
	}
	if len(data) > 2 && data[2] != "" {
		switch proj := strings.TrimPrefix(strings.ToUpper(data[2]), "EPSG:"); proj {
		case ProjectionGeographic, "3857":
			s.Projection = proj
		default:
			return s, fmt.Errorf("unsupported projection %q", data[2])
		}
	}

	p.logger.Debug("Parsed session data",
		"name", s.Name,
		"maxRange", s.MaxRange,
		"projection", s.Projection)

	return s, nil
}

// ParseLog parses [function, data, level?] for the :LOG: command.
func (p *Parser) ParseLog(data []string) (LogCommand, error) {
	var cmd LogCommand
	if err := requireArgs(data, 2, "log"); err != nil {
		return cmd, err
	}
	fixArgs(data)

	cmd.Function = data[0]
	cmd.Data = data[1]
	cmd.Level = "INFO"
	if len(data) > 2 && data[2] != "" {
		cmd.Level = data[2]
	}
	return cmd, nil
}
