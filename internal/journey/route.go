package journey

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidRoute = errors.New("invalid route")

type Coordinate struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Route is read from yaml. Points may be listed or given as an encoded
// polyline (precision 5) as returned by routing services.
//
//	points:
//	  - {lat: -36.909211, lon: 174.876973}
//	  - {lat: -36.891172, lon: 174.932592}
type Route struct {
	Points   []Coordinate `yaml:"points"`
	Polyline string       `yaml:"polyline"`
}

func LoadRoute(filename string) ([]Coordinate, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseRoute(data)
}

func ParseRoute(data []byte) ([]Coordinate, error) {
	r := Route{}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoute, err)
	}
	ret := r.Points
	if r.Polyline != "" {
		decoded, err := DecodePolyline(r.Polyline)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRoute, err)
		}
		ret = append(ret, decoded...)
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrInvalidRoute)
	}
	return ret, nil
}

// DecodePolyline decodes an encoded polyline with precision 5
func DecodePolyline(s string) ([]Coordinate, error) {
	ret := []Coordinate{}
	lat, lon := 0, 0
	for pos := 0; pos < len(s); {
		dLat, next, err := decodeValue(s, pos)
		if err != nil {
			return nil, err
		}
		dLon, next, err := decodeValue(s, next)
		if err != nil {
			return nil, err
		}
		pos = next
		lat += dLat
		lon += dLon
		ret = append(ret, Coordinate{Lat: float64(lat) / 1e5, Lon: float64(lon) / 1e5})
	}
	return ret, nil
}

func decodeValue(s string, pos int) (value, next int, err error) {
	result, shift := 0, 0
	for {
		if pos >= len(s) {
			return 0, pos, errors.New("truncated polyline")
		}
		b := int(s[pos]) - 63
		if b < 0 || b > 0x3f {
			return 0, pos, fmt.Errorf("invalid polyline character %q at %d", s[pos], pos)
		}
		pos++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), pos, nil
	}
	return result >> 1, pos, nil
}
