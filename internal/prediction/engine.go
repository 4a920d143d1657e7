package prediction

import (
	"github.com/BenjaminJRies/examen-bentoml/internal/model"
	"github.com/BenjaminJRies/examen-bentoml/internal/validation"
)

// Result is the outcome of scoring one applicant.
type Result struct {
	Score           float64 `json:"score"`
	Interpretation  string  `json:"interpretation"`
	ConfidenceLevel string  `json:"confidence_level"`
}

type band struct {
	threshold      float64
	interpretation string
	confidence     string
}

// bands are evaluated top-down; the first threshold the score reaches wins.
var bands = []band{
	{0.8, "Excellent admission chances!", "High"},
	{0.6, "Good admission chances. Consider strengthening weak areas.", "Medium-High"},
	{0.4, "Moderate admission chances. Focus on improving your profile.", "Medium"},
	{0.2, "Lower admission chances. Significant improvement needed.", "Low"},
}

var lowest = band{0, "Very low admission chances. Consider alternative options.", "Very Low"}

// Engine scores validated profiles against a loaded model.
type Engine struct {
	model *model.ScalerModel
}

// NewEngine wraps m. m must not be nil.
func NewEngine(m *model.ScalerModel) *Engine {
	return &Engine{model: m}
}

// Predict scores a validated profile. It cannot fail: invalid input is
// rejected before it gets here.
func (e *Engine) Predict(p validation.ApplicantProfile) Result {
	score := Clamp(e.model.Score(p.Vector()))
	interpretation, confidence := Interpret(score)
	return Result{
		Score:           score,
		Interpretation:  interpretation,
		ConfidenceLevel: confidence,
	}
}

// Clamp bounds a raw regression output to [0, 1].
func Clamp(raw float64) float64 {
	return max(0, min(1, raw))
}

// Interpret maps a score to its interpretation and confidence labels.
func Interpret(score float64) (string, string) {
	b := bandFor(score)
	return b.interpretation, b.confidence
}

func bandFor(score float64) band {
	for _, b := range bands {
		if score >= b.threshold {
			return b
		}
	}
	return lowest
}
