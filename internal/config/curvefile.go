package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/splinerig/pkg/math"
)

// CurveFile is the on-disk description of an input curve.
type CurveFile struct {
	Name   string       `yaml:"name"`
	Degree int          `yaml:"degree"`
	Closed bool         `yaml:"closed"`
	Points [][3]float64 `yaml:"points"`
}

// LoadCurveFile reads and validates a YAML curve description.
func LoadCurveFile(path string) (*CurveFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading curve file %s: %w", path, err)
	}

	cf := &CurveFile{Degree: 3}
	if err := yaml.Unmarshal(data, cf); err != nil {
		return nil, fmt.Errorf("parsing curve file %s: %w", path, err)
	}
	if cf.Name == "" {
		cf.Name = "curve"
	}
	if cf.Degree < 1 || cf.Degree > 3 {
		return nil, fmt.Errorf("curve file %s: degree %d out of range 1..3", path, cf.Degree)
	}
	min := cf.Degree + 1
	if cf.Closed && min < 3 {
		min = 3
	}
	if len(cf.Points) < min {
		return nil, fmt.Errorf("curve file %s: %d points, need at least %d", path, len(cf.Points), min)
	}
	return cf, nil
}

// Positions converts the point rows to vectors.
func (cf *CurveFile) Positions() []math.Vec3 {
	out := make([]math.Vec3, len(cf.Points))
	for i, p := range cf.Points {
		out[i] = math.Vec3{X: p[0], Y: p[1], Z: p[2]}
	}
	return out
}
