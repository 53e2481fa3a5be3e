package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/OCAP2/aoi/internal/util"
	"github.com/OCAP2/aoi/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Scene positions are planar. When a session is started with projection
// "4326", incoming lon/lat pairs are projected to EPSG:3857 metres first so
// that AOI radii keep a metric meaning.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Position2DFromString parses "[x,y]", "x,y" or "x,y,elev" (elevation is
// discarded) into a core.Position2D.
func Position2DFromString(coords string) (core.Position2D, error) {
	parts := util.SplitArray(coords)
	if len(parts) < 2 || len(parts) > 3 {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	x, err := util.ParseFloat(parts[0])
	if err != nil {
		return core.Position2D{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	y, err := util.ParseFloat(parts[1])
	if err != nil {
		return core.Position2D{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	if !finite(x) || !finite(y) {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	return core.Position2D{X: x, Y: y}, nil
}

// Project4326To3857 converts a lon/lat position into web mercator metres.
func Project4326To3857(p core.Position2D) (core.Position2D, error) {
	if p.Y < -90 || p.Y > 90 || p.X < -180 || p.X > 180 {
		return core.Position2D{}, fmt.Errorf("%w: lon/lat out of range", ErrInvalidCoordinates)
	}
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(p.X, p.Y, 0)
	if !finite(x) || !finite(y) {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	return core.Position2D{X: x, Y: y}, nil
}

// Point returns the position as a simplefeatures point.
func Point(p core.Position2D) (geom.Point, error) {
	pt, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.X, Y: p.Y},
		Type: geom.DimXY,
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return pt, nil
}

// AOIArea returns the square an entity with the given radius watches,
// centred on p, as a closed polygon. A zero radius watches no area and
// yields the empty polygon.
func AOIArea(p core.Position2D, aoi float64) (geom.Polygon, error) {
	if aoi == 0 {
		return geom.Polygon{}, nil
	}
	minX, minY := p.X-aoi, p.Y-aoi
	maxX, maxY := p.X+aoi, p.Y+aoi
	seq := geom.NewSequence([]float64{
		minX, minY,
		maxX, minY,
		maxX, maxY,
		minX, maxY,
		minX, minY,
	}, geom.DimXY)
	ring, err := geom.NewLineString(seq)
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("aoi ring: %w", err)
	}
	poly, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("aoi area: %w", err)
	}
	return poly, nil
}

// AOIAreaWKT is AOIArea rendered as well-known text.
func AOIAreaWKT(p core.Position2D, aoi float64) (string, error) {
	poly, err := AOIArea(p, aoi)
	if err != nil {
		return "", err
	}
	return poly.AsText(), nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
