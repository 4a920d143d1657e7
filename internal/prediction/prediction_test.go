package prediction

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/BenjaminJRies/examen-bentoml/internal/model"
	"github.com/BenjaminJRies/examen-bentoml/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadModel(t *testing.T) *model.ScalerModel {
	t.Helper()
	m, err := model.Load(filepath.Join("..", "..", "models", "admission_model.yaml"))
	require.NoError(t, err)
	return m
}

// constantModel scores every applicant at exactly intercept.
func constantModel(t *testing.T, intercept float64) *model.ScalerModel {
	t.Helper()
	m, err := model.New(model.Artifact{
		FeatureMeans:  make([]float64, model.FeatureCount),
		FeatureScales: []float64{1, 1, 1, 1, 1, 1, 1},
		Weights:       make([]float64, model.FeatureCount),
		Intercept:     intercept,
	})
	require.NoError(t, err)
	return m
}

func sampleRecord() map[string]any {
	return map[string]any{
		"GRE_Score":         320.0,
		"TOEFL_Score":       110.0,
		"University_Rating": 3.0,
		"SOP":               4.0,
		"LOR":               4.5,
		"CGPA":              8.5,
		"Research":          1.0,
	}
}

func TestInterpretBands(t *testing.T) {
	tests := []struct {
		score          float64
		interpretation string
		confidence     string
	}{
		{1.0, "Excellent admission chances!", "High"},
		{0.8, "Excellent admission chances!", "High"},
		{0.7999, "Good admission chances. Consider strengthening weak areas.", "Medium-High"},
		{0.6, "Good admission chances. Consider strengthening weak areas.", "Medium-High"},
		{0.4, "Moderate admission chances. Focus on improving your profile.", "Medium"},
		{0.2, "Lower admission chances. Significant improvement needed.", "Low"},
		{0.1999, "Very low admission chances. Consider alternative options.", "Very Low"},
		{0.0, "Very low admission chances. Consider alternative options.", "Very Low"},
	}

	for _, tt := range tests {
		interpretation, confidence := Interpret(tt.score)
		assert.Equal(t, tt.interpretation, interpretation, "score %v", tt.score)
		assert.Equal(t, tt.confidence, confidence, "score %v", tt.score)
	}
}

func TestInterpretIsMonotone(t *testing.T) {
	rank := map[string]int{
		lowest.interpretation: 0,
	}
	for i, b := range bands {
		rank[b.interpretation] = len(bands) - i
	}

	prev := -1
	for i := 0; i <= 10000; i++ {
		label, _ := Interpret(float64(i) / 10000)
		r, ok := rank[label]
		require.True(t, ok, "unknown label %q", label)
		assert.GreaterOrEqual(t, r, prev)
		prev = r
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.3))
	assert.Equal(t, 1.0, Clamp(1.7))
	assert.Equal(t, 0.42, Clamp(0.42))
}

func TestPredictClampsAndLabels(t *testing.T) {
	profile := validation.ApplicantProfile{GREScore: 300, TOEFLScore: 100, UniversityRating: 3, SOP: 3, LOR: 3, CGPA: 8, Research: 0}

	high := NewEngine(constantModel(t, 1.4)).Predict(profile)
	assert.Equal(t, 1.0, high.Score)
	assert.Equal(t, "High", high.ConfidenceLevel)

	low := NewEngine(constantModel(t, -0.2)).Predict(profile)
	assert.Equal(t, 0.0, low.Score)
	assert.Equal(t, "Very Low", low.ConfidenceLevel)
}

func TestPredictScoreInRange(t *testing.T) {
	engine := NewEngine(loadModel(t))
	v := validation.New()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		rec := map[string]any{
			"GRE_Score":         260 + rng.Float64()*80,
			"TOEFL_Score":       80 + rng.Float64()*40,
			"University_Rating": float64(1 + rng.Intn(5)),
			"SOP":               1 + rng.Float64()*4,
			"LOR":               1 + rng.Float64()*4,
			"CGPA":              6 + rng.Float64()*4,
			"Research":          float64(rng.Intn(2)),
		}
		p, err := v.Validate(rec)
		require.NoError(t, err)

		res := engine.Predict(p)
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 1.0)
		label, _ := Interpret(res.Score)
		assert.Equal(t, label, res.Interpretation)
	}
}

func TestPredictSample(t *testing.T) {
	p, err := validation.New().Validate(sampleRecord())
	require.NoError(t, err)

	res := NewEngine(loadModel(t)).Predict(p)
	assert.InDelta(t, 0.76, res.Score, 0.05)
	assert.Equal(t, "Good admission chances. Consider strengthening weak areas.", res.Interpretation)
}

func TestPredictBatchPreservesOrder(t *testing.T) {
	engine := NewEngine(loadModel(t))
	batch := NewBatch(validation.New(), engine)

	records := make([]any, 0, 20)
	for i := 0; i < 20; i++ {
		rec := sampleRecord()
		rec["GRE_Score"] = 260.0 + float64(i)*4
		records = append(records, rec)
	}

	out, err := batch.PredictBatch(records)
	require.NoError(t, err)
	require.Len(t, out.Predictions, len(records))

	v := validation.New()
	for i, raw := range records {
		p, err := v.Validate(raw)
		require.NoError(t, err)
		assert.Equal(t, engine.Predict(p), out.Predictions[i], "index %d", i)
		assert.Equal(t, p, out.Profiles[i], "index %d", i)
	}
	// GRE has a positive weight, so scores rise with the index
	for i := 1; i < len(out.Predictions); i++ {
		assert.GreaterOrEqual(t, out.Predictions[i].Score, out.Predictions[i-1].Score)
	}
	assert.Equal(t, 20, out.Summary.Total)
}

func TestPredictBatchRejectsWholeBatch(t *testing.T) {
	batch := NewBatch(validation.New(), NewEngine(loadModel(t)))

	bad := sampleRecord()
	bad["CGPA"] = 99.0
	worse := sampleRecord()
	delete(worse, "SOP")
	worse["Research"] = 5.0

	out, err := batch.PredictBatch([]any{sampleRecord(), bad, sampleRecord(), worse})
	var berr *BatchValidationError
	require.ErrorAs(t, err, &berr)
	assert.Empty(t, out.Predictions)

	require.Len(t, berr.Records, 2)
	assert.Equal(t, 1, berr.Records[0].Index)
	require.Len(t, berr.Records[0].Fields, 1)
	assert.Equal(t, "CGPA", berr.Records[0].Fields[0].Field)
	assert.Equal(t, 3, berr.Records[1].Index)
	assert.Len(t, berr.Records[1].Fields, 2)
	assert.Contains(t, berr.Error(), "record 1: CGPA")
}

func TestPredictBatchEmpty(t *testing.T) {
	out, err := NewBatch(validation.New(), NewEngine(loadModel(t))).PredictBatch(nil)
	require.NoError(t, err)
	assert.Empty(t, out.Predictions)
	assert.Equal(t, Summary{}, out.Summary)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Result{{Score: 0.2}, {Score: 0.4}, {Score: 0.6}})
	assert.Equal(t, 3, s.Total)
	assert.InDelta(t, 0.4, s.Average, 1e-12)
	assert.InDelta(t, 0.2, s.Min, 1e-12)
	assert.InDelta(t, 0.6, s.Max, 1e-12)
	assert.InDelta(t, 0.163299, s.StdDev, 1e-6)
}
