package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityArtifact() Artifact {
	return Artifact{
		FeatureMeans:  []float64{0, 0, 0, 0, 0, 0, 0},
		FeatureScales: []float64{1, 1, 1, 1, 1, 1, 1},
		Weights:       []float64{1, 1, 1, 1, 1, 1, 1},
		Intercept:     0.5,
	}
}

func TestLoad(t *testing.T) {
	for _, name := range []string{"admission_model.yaml", "admission_model.json"} {
		t.Run(name, func(t *testing.T) {
			m, err := Load(filepath.Join("testdata", name))
			require.NoError(t, err)
			assert.Equal(t, "1.0.0", m.Version())

			// the mean vector standardizes to zero, leaving the intercept
			means := [FeatureCount]float64{316.4725, 107.1925, 3.0875, 3.4, 3.4525, 8.598925, 0.5475}
			assert.InDelta(t, 0.7242, m.Score(means), 1e-9)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "does-not-exist.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestParseRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Artifact)
	}{
		{"short means", func(a *Artifact) { a.FeatureMeans = a.FeatureMeans[:6] }},
		{"long weights", func(a *Artifact) { a.Weights = append(a.Weights, 1) }},
		{"zero scale", func(a *Artifact) { a.FeatureScales[3] = 0 }},
		{"wrong feature order", func(a *Artifact) {
			a.FeatureNames = []string{"TOEFL_Score", "GRE_Score", "University_Rating", "SOP", "LOR", "CGPA", "Research"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := identityArtifact()
			tt.mutate(&a)
			_, err := New(a)
			assert.ErrorIs(t, err, ErrInvalidArtifact)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("feature_means: [1, 2"))
	assert.ErrorIs(t, err, ErrInvalidArtifact)
}

func TestScore(t *testing.T) {
	a := identityArtifact()
	a.FeatureMeans[0] = 10
	a.FeatureScales[0] = 2
	a.Weights[6] = -1

	m, err := New(a)
	require.NoError(t, err)

	x := [FeatureCount]float64{14, 0, 0, 0, 0, 0, 1}
	// (14-10)/2*1 + 1*-1 + 0.5
	assert.InDelta(t, 1.5, m.Score(x), 1e-12)

	z := m.Standardize(x)
	assert.InDelta(t, 2.0, z[0], 1e-12)
}
