package scoring

import (
	"fmt"
	"math"
)

// Grade is the four-tier label derived from a total score.
type Grade string

const (
	GradeExcellent Grade = "excellent"
	GradeGood      Grade = "good"
	GradePass      Grade = "pass"
	GradeFail      Grade = "fail"
)

const (
	excellentFloor = 90
	goodFloor      = 80
	passFloor      = 60
)

// Scores maps item codes to scores; nil means the item could not be scored.
type Scores map[string]*float64

// Result is the scored outcome for one test-taker on one form.
type Result struct {
	Scores     Scores  `json:"scores"`
	TotalScore float64 `json:"total_score"`
	Grade      Grade   `json:"grade_label"`
}

// ScoreItem converts one measurement into a score. The boolean is false when
// the value is absent, no ranges apply, or nothing matches.
func ScoreItem(value Value, item Item, gender Gender, level *int) (float64, bool) {
	if !value.IsSet() {
		return 0, false
	}
	ranges, ok := item.Scoring.Resolve(gender, level)
	if !ok {
		return 0, false
	}
	return matchRanges(value, ranges, item.Type())
}

func matchRanges(value Value, ranges RangeSet, t ValueType) (float64, bool) {
	v, err := value.Normalize(t)
	if err != nil {
		return 0, false
	}
	for _, r := range ranges {
		lo, hasLo, hi, hasHi, err := r.bounds(t)
		if err != nil {
			continue
		}
		if hasLo && v < lo {
			continue
		}
		if hasHi && v > hi {
			continue
		}
		return r.Score, true
	}
	return 0, false
}

// ScoreAll scores every item applicable to the gender. Inapplicable items are
// absent from the result; applicable but unscoreable items map to nil.
func ScoreAll(values Measurements, items []Item, gender Gender, level *int) Scores {
	scores := make(Scores, len(items))
	for _, item := range items {
		if !item.AppliesTo(gender) {
			continue
		}
		if score, ok := ScoreItem(values[item.Code], item, gender, level); ok {
			s := score
			scores[item.Code] = &s
		} else {
			scores[item.Code] = nil
		}
	}
	return scores
}

// AggregateTotal is the weighted mean of the non-nil scores whose item weight
// is positive, rounded to two decimals. No weighted scores yields 0.
func AggregateTotal(scores Scores, items []Item) float64 {
	var weighted, totalWeight float64
	for _, item := range items {
		score := scores[item.Code]
		if score == nil || item.Weight <= 0 {
			continue
		}
		weighted += *score * float64(item.Weight)
		totalWeight += float64(item.Weight)
	}
	if totalWeight == 0 {
		return 0
	}
	return Round2(weighted / totalWeight)
}

// ClassifyGrade maps a total score onto the four-tier grade. Each band includes its floor.
func ClassifyGrade(total float64) Grade {
	switch {
	case total >= excellentFloor:
		return GradeExcellent
	case total >= goodFloor:
		return GradeGood
	case total >= passFloor:
		return GradePass
	default:
		return GradeFail
	}
}

// ComputeBMI returns weight / height(m)^2 rounded to two decimals.
func ComputeBMI(heightCm, weightKg float64) (float64, error) {
	if heightCm <= 0 || weightKg <= 0 {
		return 0, fmt.Errorf("%w: height=%v weight=%v", ErrInvalidBMIInput, heightCm, weightKg)
	}
	// kg*10^4/cm^2 is exact for integral inputs.
	return Round2(weightKg * 10000 / (heightCm * heightCm)), nil
}

// DeriveBMI adds the BMI measurement when both height and weight are present.
// The returned map is a copy; the input is never modified. Any BMI supplied by
// the caller is discarded. A height or weight that is unreadable or not
// positive is reported and the copy carries no BMI.
func DeriveBMI(values Measurements) (Measurements, error) {
	out := values.Clone()
	delete(out, CodeBMI)
	h, okH := values[CodeHeight]
	w, okW := values[CodeWeight]
	if !okH || !okW || !h.IsSet() || !w.IsSet() {
		return out, nil
	}
	height, err := h.Float()
	if err != nil {
		return out, fmt.Errorf("%w: height: %v", ErrInvalidBMIInput, err)
	}
	weight, err := w.Float()
	if err != nil {
		return out, fmt.Errorf("%w: weight: %v", ErrInvalidBMIInput, err)
	}
	bmi, err := ComputeBMI(height, weight)
	if err != nil {
		return out, err
	}
	out[CodeBMI] = Number(bmi)
	return out, nil
}

// Evaluate runs the full pipeline over the items applicable to the gender:
// BMI derivation, per-item scoring, weighted total and grade. The measurements
// used for scoring, including any derived BMI, are returned alongside the result.
// A BMI error is returned together with a result computed without BMI.
func Evaluate(values Measurements, items []Item, gender Gender, level *int) (Measurements, Result, error) {
	derived, bmiErr := DeriveBMI(values)
	applicable := ApplicableItems(items, gender)
	scores := ScoreAll(derived, applicable, gender, level)
	total := AggregateTotal(scores, applicable)
	return derived, Result{Scores: scores, TotalScore: total, Grade: ClassifyGrade(total)}, bmiErr
}

// Round2 rounds half away from zero at two decimals. The small offset absorbs
// binary representation error so that 2187.4999999999995 rounds like 2187.5.
func Round2(x float64) float64 {
	const epsilon = 1e-9
	if x < 0 {
		return -Round2(-x)
	}
	return math.Round(x*100+epsilon) / 100
}
