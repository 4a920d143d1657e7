package prediction

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/BenjaminJRies/examen-bentoml/internal/validation"
)

// RecordError holds the field errors of one record in a batch.
type RecordError struct {
	Index  int                     `json:"index"`
	Fields []validation.FieldError `json:"fields"`
}

// BatchValidationError is returned when any record of a batch is invalid. No
// record of such a batch is scored.
type BatchValidationError struct {
	Records []RecordError
}

func (e *BatchValidationError) Error() string {
	parts := make([]string, len(e.Records))
	for i, r := range e.Records {
		names := make([]string, len(r.Fields))
		for j, f := range r.Fields {
			names[j] = f.Field
		}
		parts[i] = fmt.Sprintf("record %d: %s", r.Index, strings.Join(names, ", "))
	}
	return "batch validation failed: " + strings.Join(parts, "; ")
}

// Summary aggregates the scores of a batch.
type Summary struct {
	Total   int     `json:"total_students"`
	Average float64 `json:"average_chance"`
	Min     float64 `json:"min_chance"`
	Max     float64 `json:"max_chance"`
	StdDev  float64 `json:"std_chance"`
}

// BatchResult holds one Result per input record, in input order. Profiles
// holds the validated record behind each prediction.
type BatchResult struct {
	Predictions []Result                      `json:"predictions"`
	Summary     Summary                       `json:"summary"`
	Profiles    []validation.ApplicantProfile `json:"-"`
}

// Batch validates and scores ordered collections of records.
type Batch struct {
	validator *validation.Validator
	engine    *Engine
}

// NewBatch creates a batch orchestrator.
func NewBatch(v *validation.Validator, e *Engine) *Batch {
	return &Batch{validator: v, engine: e}
}

// PredictBatch validates every record before scoring any. If one or more
// records fail, a *BatchValidationError lists every failing index.
func (b *Batch) PredictBatch(records []any) (BatchResult, error) {
	profiles := make([]validation.ApplicantProfile, len(records))
	var failures []RecordError

	for i, raw := range records {
		p, err := b.validator.Validate(raw)
		if err != nil {
			var verr *validation.ValidationError
			if !errors.As(err, &verr) {
				return BatchResult{}, err
			}
			failures = append(failures, RecordError{Index: i, Fields: verr.Fields})
			continue
		}
		profiles[i] = p
	}
	if len(failures) > 0 {
		return BatchResult{}, &BatchValidationError{Records: failures}
	}

	results := make([]Result, len(profiles))
	for i, p := range profiles {
		results[i] = b.engine.Predict(p)
	}

	return BatchResult{Predictions: results, Summary: Summarize(results), Profiles: profiles}, nil
}

// Summarize computes count, mean, extrema and population standard deviation.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	if len(results) == 0 {
		return s
	}

	s.Min, s.Max = math.Inf(1), math.Inf(-1)
	var sum float64
	for _, r := range results {
		sum += r.Score
		s.Min = math.Min(s.Min, r.Score)
		s.Max = math.Max(s.Max, r.Score)
	}
	s.Average = sum / float64(len(results))

	var sq float64
	for _, r := range results {
		d := r.Score - s.Average
		sq += d * d
	}
	s.StdDev = math.Sqrt(sq / float64(len(results)))
	return s
}
