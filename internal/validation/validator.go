// Package validation turns an untyped JSON record into an ApplicantProfile,
// reporting every offending field at once.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/BenjaminJRies/examen-bentoml/internal/model"
	"github.com/go-playground/validator/v10"
)

// ApplicantProfile is a validated applicant record. Range rules are declared
// on the struct tags and enforced by Validate.
type ApplicantProfile struct {
	GREScore         float64 `json:"GRE_Score" validate:"gte=260,lte=340"`
	TOEFLScore       float64 `json:"TOEFL_Score" validate:"gte=80,lte=120"`
	UniversityRating int     `json:"University_Rating" validate:"gte=1,lte=5"`
	SOP              float64 `json:"SOP" validate:"gte=1,lte=5"`
	LOR              float64 `json:"LOR" validate:"gte=1,lte=5"`
	CGPA             float64 `json:"CGPA" validate:"gte=6,lte=10"`
	Research         int     `json:"Research" validate:"oneof=0 1"`
}

// Vector returns the features in artifact order.
func (p ApplicantProfile) Vector() [model.FeatureCount]float64 {
	return [model.FeatureCount]float64{
		p.GREScore,
		p.TOEFLScore,
		float64(p.UniversityRating),
		p.SOP,
		p.LOR,
		p.CGPA,
		float64(p.Research),
	}
}

// FieldError describes one offending field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every offending field of a single record.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldNames returns the offending field names in report order.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return names
}

type kind int

const (
	kindNumber kind = iota
	kindInteger
)

type fieldSpec struct {
	name   string
	kind   kind
	min    float64
	max    float64
	assign func(p *ApplicantProfile, v float64)
}

// fields is declared in artifact order; errors are reported in the same order.
// Bounds come from the validate tags on ApplicantProfile.
var fields = withTagBounds([]fieldSpec{
	{name: "GRE_Score", kind: kindNumber, assign: func(p *ApplicantProfile, v float64) { p.GREScore = v }},
	{name: "TOEFL_Score", kind: kindNumber, assign: func(p *ApplicantProfile, v float64) { p.TOEFLScore = v }},
	{name: "University_Rating", kind: kindInteger, assign: func(p *ApplicantProfile, v float64) { p.UniversityRating = int(v) }},
	{name: "SOP", kind: kindNumber, assign: func(p *ApplicantProfile, v float64) { p.SOP = v }},
	{name: "LOR", kind: kindNumber, assign: func(p *ApplicantProfile, v float64) { p.LOR = v }},
	{name: "CGPA", kind: kindNumber, assign: func(p *ApplicantProfile, v float64) { p.CGPA = v }},
	{name: "Research", kind: kindInteger, assign: func(p *ApplicantProfile, v float64) { p.Research = int(v) }},
})

func withTagBounds(specs []fieldSpec) []fieldSpec {
	t := reflect.TypeOf(ApplicantProfile{})
	for i := range specs {
		sf, ok := fieldByJSONName(t, specs[i].name)
		if !ok {
			panic("validation: ApplicantProfile has no field " + specs[i].name)
		}
		lo, hi, err := parseBounds(sf.Tag.Get("validate"))
		if err != nil {
			panic(fmt.Sprintf("validation: %s: %v", specs[i].name, err))
		}
		specs[i].min, specs[i].max = lo, hi
	}
	return specs
}

func fieldByJSONName(t reflect.Type, name string) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if strings.SplitN(sf.Tag.Get("json"), ",", 2)[0] == name {
			return sf, true
		}
	}
	return reflect.StructField{}, false
}

// parseBounds reads the inclusive range out of gte/lte or oneof rules.
func parseBounds(tag string) (float64, float64, error) {
	lo, hi := math.Inf(-1), math.Inf(1)
	for _, rule := range strings.Split(tag, ",") {
		name, param, _ := strings.Cut(rule, "=")
		switch name {
		case "gte", "lte":
			v, err := strconv.ParseFloat(param, 64)
			if err != nil {
				return 0, 0, fmt.Errorf("bad %s bound %q", name, param)
			}
			if name == "gte" {
				lo = v
			} else {
				hi = v
			}
		case "oneof":
			for _, opt := range strings.Fields(param) {
				v, err := strconv.ParseFloat(opt, 64)
				if err != nil {
					return 0, 0, fmt.Errorf("bad oneof value %q", opt)
				}
				if math.IsInf(lo, -1) || v < lo {
					lo = v
				}
				if math.IsInf(hi, 1) || v > hi {
					hi = v
				}
			}
		}
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return 0, 0, fmt.Errorf("tag %q does not bound both ends", tag)
	}
	return lo, hi, nil
}

var fieldOrder = func() map[string]int {
	m := make(map[string]int, len(fields))
	for i, f := range fields {
		m[f.name] = i
	}
	return m
}()

// Validator checks raw records. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	specs    map[string]fieldSpec
}

// New creates a Validator.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})

	specs := make(map[string]fieldSpec, len(fields))
	for _, f := range fields {
		specs[f.name] = f
	}
	return &Validator{validate: v, specs: specs}
}

// Validate checks presence, JSON type and range of every field of raw. raw is
// expected to be a decoded JSON object (map[string]any); anything else is
// reported against the pseudo-field "body".
func (v *Validator) Validate(raw any) (ApplicantProfile, error) {
	var profile ApplicantProfile

	record, ok := raw.(map[string]any)
	if !ok {
		return profile, &ValidationError{Fields: []FieldError{{Field: "body", Reason: "must be a JSON object"}}}
	}

	var errs []FieldError
	typed := make(map[string]bool, len(fields))
	for _, spec := range fields {
		value, present := record[spec.name]
		if !present || value == nil {
			errs = append(errs, FieldError{Field: spec.name, Reason: "field required"})
			continue
		}
		num, ok := toFloat(value)
		if !ok {
			errs = append(errs, FieldError{Field: spec.name, Reason: "must be a number"})
			continue
		}
		if math.IsNaN(num) || math.IsInf(num, 0) {
			errs = append(errs, FieldError{Field: spec.name, Reason: "must be a finite number"})
			continue
		}
		if spec.kind == kindInteger && num != math.Trunc(num) {
			errs = append(errs, FieldError{Field: spec.name, Reason: "must be an integer"})
			continue
		}
		if spec.kind == kindInteger && (num < spec.min || num > spec.max) {
			// out-of-range integers could overflow int conversion; report directly
			errs = append(errs, v.rangeError(spec))
			continue
		}
		spec.assign(&profile, num)
		typed[spec.name] = true
	}

	if err := v.validate.Struct(profile); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return ApplicantProfile{}, err
		}
		for _, fe := range verrs {
			// fields that already failed a type check hold zero values
			if !typed[fe.Field()] {
				continue
			}
			errs = append(errs, v.rangeError(v.specs[fe.Field()]))
		}
	}

	if len(errs) > 0 {
		sort.SliceStable(errs, func(i, j int) bool {
			return fieldOrder[errs[i].Field] < fieldOrder[errs[j].Field]
		})
		return ApplicantProfile{}, &ValidationError{Fields: errs}
	}
	return profile, nil
}

func (v *Validator) rangeError(spec fieldSpec) FieldError {
	if spec.kind == kindInteger && spec.min == 0 && spec.max == 1 {
		return FieldError{Field: spec.name, Reason: "must be 0 or 1"}
	}
	return FieldError{
		Field:  spec.name,
		Reason: fmt.Sprintf("must be between %s and %s", formatBound(spec.min), formatBound(spec.max)),
	}
}

func formatBound(b float64) string {
	if b == math.Trunc(b) {
		return fmt.Sprintf("%.0f", b)
	}
	return fmt.Sprintf("%g", b)
}

// toFloat accepts the numeric types a JSON decoder can produce. Strings and
// booleans are rejected rather than coerced.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		// out-of-range literals parse to ±Inf and are reported as not finite
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
