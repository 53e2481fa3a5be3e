package parser

import (
	"fmt"
)

// ParseEnter parses [id, "[x,y]", aoi].
func (p *Parser) ParseEnter(data []string) (EnterCommand, error) {
	var cmd EnterCommand
	if err := requireArgs(data, 3, "enter"); err != nil {
		return cmd, err
	}
	fixArgs(data)

	id, err := parseEntityID(data[0])
	if err != nil {
		return cmd, err
	}
	pos, err := p.parsePosition(data[1])
	if err != nil {
		return cmd, fmt.Errorf("error parsing position: %w", err)
	}
	r, err := parseRadius(data[2])
	if err != nil {
		return cmd, err
	}

	cmd = EnterCommand{EntityID: id, Position: pos, AOI: r}
	return cmd, nil
}

// ParseMove parses [id, "[x,y]"].
func (p *Parser) ParseMove(data []string) (MoveCommand, error) {
	var cmd MoveCommand
	if err := requireArgs(data, 2, "move"); err != nil {
		return cmd, err
	}
	fixArgs(data)

	id, err := parseEntityID(data[0])
	if err != nil {
		return cmd, err
	}
	pos, err := p.parsePosition(data[1])
	if err != nil {
		return cmd, fmt.Errorf("error parsing position: %w", err)
	}

	cmd = MoveCommand{EntityID: id, Position: pos}
	return cmd, nil
}

// ParseLeave parses [id].
func (p *Parser) ParseLeave(data []string) (string, error) {
	if err := requireArgs(data, 1, "leave"); err != nil {
		return "", err
	}
	fixArgs(data)
	return parseEntityID(data[0])
}

// ParseQuery parses [id].
func (p *Parser) ParseQuery(data []string) (string, error) {
	if err := requireArgs(data, 1, "query"); err != nil {
		return "", err
	}
	fixArgs(data)
	return parseEntityID(data[0])
}

// ParseRadius parses [id, aoi].
func (p *Parser) ParseRadius(data []string) (RadiusCommand, error) {
	var cmd RadiusCommand
	if err := requireArgs(data, 2, "radius"); err != nil {
		return cmd, err
	}
	fixArgs(data)

	id, err := parseEntityID(data[0])
	if err != nil {
		return cmd, err
	}
	r, err := parseRadius(data[1])
	if err != nil {
		return cmd, err
	}
	return RadiusCommand{EntityID: id, AOI: r}, nil
}
