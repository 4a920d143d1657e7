// Package model holds the frozen standardization parameters and linear
// regression coefficients produced by the offline training job.
package model

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// FeatureCount is the number of features in an applicant vector.
const FeatureCount = 7

// FeatureNames lists the features in the order the artifact expects them.
var FeatureNames = [FeatureCount]string{
	"GRE_Score",
	"TOEFL_Score",
	"University_Rating",
	"SOP",
	"LOR",
	"CGPA",
	"Research",
}

var (
	// ErrModelUnavailable is returned when no artifact could be loaded.
	ErrModelUnavailable = errors.New("model artifact unavailable")
	// ErrInvalidArtifact is returned when an artifact fails its shape checks.
	ErrInvalidArtifact = errors.New("invalid model artifact")
)

// Artifact is the on-disk representation of the trained scaler and regressor.
// YAML is a superset of JSON, so both encodings load through the same path.
type Artifact struct {
	Version       string    `yaml:"version" json:"version"`
	FeatureNames  []string  `yaml:"feature_names" json:"feature_names"`
	FeatureMeans  []float64 `yaml:"feature_means" json:"feature_means"`
	FeatureScales []float64 `yaml:"feature_scales" json:"feature_scales"`
	Weights       []float64 `yaml:"weights" json:"weights"`
	Intercept     float64   `yaml:"intercept" json:"intercept"`
}

// ScalerModel is the immutable, loaded artifact. It is safe for concurrent use
// because nothing mutates it after construction.
type ScalerModel struct {
	version   string
	means     [FeatureCount]float64
	scales    [FeatureCount]float64
	weights   [FeatureCount]float64
	intercept float64
}

// Load reads and validates an artifact file.
func Load(path string) (*ScalerModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return Parse(data)
}

// Parse decodes an artifact from YAML or JSON bytes.
func Parse(data []byte) (*ScalerModel, error) {
	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	return New(a)
}

// New builds a ScalerModel from an in-memory artifact.
func New(a Artifact) (*ScalerModel, error) {
	if err := checkLen("feature_means", a.FeatureMeans); err != nil {
		return nil, err
	}
	if err := checkLen("feature_scales", a.FeatureScales); err != nil {
		return nil, err
	}
	if err := checkLen("weights", a.Weights); err != nil {
		return nil, err
	}
	if len(a.FeatureNames) > 0 {
		if len(a.FeatureNames) != FeatureCount {
			return nil, fmt.Errorf("%w: feature_names has %d entries, want %d", ErrInvalidArtifact, len(a.FeatureNames), FeatureCount)
		}
		for i, name := range a.FeatureNames {
			if name != FeatureNames[i] {
				return nil, fmt.Errorf("%w: feature %d is %q, want %q", ErrInvalidArtifact, i, name, FeatureNames[i])
			}
		}
	}
	if math.IsNaN(a.Intercept) || math.IsInf(a.Intercept, 0) {
		return nil, fmt.Errorf("%w: intercept is not finite", ErrInvalidArtifact)
	}

	m := &ScalerModel{version: a.Version, intercept: a.Intercept}
	for i := 0; i < FeatureCount; i++ {
		if a.FeatureScales[i] == 0 {
			return nil, fmt.Errorf("%w: feature_scales[%d] is zero", ErrInvalidArtifact, i)
		}
		m.means[i] = a.FeatureMeans[i]
		m.scales[i] = a.FeatureScales[i]
		m.weights[i] = a.Weights[i]
	}
	return m, nil
}

func checkLen(name string, values []float64) error {
	if len(values) != FeatureCount {
		return fmt.Errorf("%w: %s has %d entries, want %d", ErrInvalidArtifact, name, len(values), FeatureCount)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s[%d] is not finite", ErrInvalidArtifact, name, i)
		}
	}
	return nil
}

// Version returns the artifact version string, if one was recorded.
func (m *ScalerModel) Version() string {
	return m.version
}

// Standardize applies (x - mean) / scale per feature.
func (m *ScalerModel) Standardize(x [FeatureCount]float64) [FeatureCount]float64 {
	var z [FeatureCount]float64
	for i := range x {
		z[i] = (x[i] - m.means[i]) / m.scales[i]
	}
	return z
}

// Score returns the unclamped regression output for a raw feature vector.
func (m *ScalerModel) Score(x [FeatureCount]float64) float64 {
	z := m.Standardize(x)
	raw := m.intercept
	for i := range z {
		raw += z[i] * m.weights[i]
	}
	return raw
}
