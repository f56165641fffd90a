package scoring

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

var gradeBucketPattern = regexp.MustCompile(`^grade(\d+)$`)

// ScoreRange maps an inclusive [Min, Max] interval to a score.
// A nil bound is unbounded on that side.
type ScoreRange struct {
	Label string  `json:"label,omitempty" yaml:"label,omitempty"`
	Min   *Value  `json:"min,omitempty" yaml:"min,omitempty"`
	Max   *Value  `json:"max,omitempty" yaml:"max,omitempty"`
	Score float64 `json:"score" yaml:"score"`
}

// bounds normalizes both ends. Unbounded sides are reported as false.
func (r ScoreRange) bounds(t ValueType) (lo float64, hasLo bool, hi float64, hasHi bool, err error) {
	if r.Min != nil && r.Min.IsSet() {
		if lo, err = r.Min.Normalize(t); err != nil {
			return
		}
		hasLo = true
	}
	if r.Max != nil && r.Max.IsSet() {
		if hi, err = r.Max.Normalize(t); err != nil {
			return
		}
		hasHi = true
	}
	return
}

// RangeSet is an ordered list of ranges. Order is significant: the first match wins.
type RangeSet []ScoreRange

// UnmarshalYAML accepts either a sequence of ranges or a mapping of label to range.
// Mapping order is preserved.
func (rs *RangeSet) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		out := make(RangeSet, 0, len(node.Content))
		for _, child := range node.Content {
			var r ScoreRange
			if err := child.Decode(&r); err != nil {
				return err
			}
			out = append(out, r)
		}
		*rs = out
	case yaml.MappingNode:
		out := make(RangeSet, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var r ScoreRange
			if err := node.Content[i+1].Decode(&r); err != nil {
				return err
			}
			if r.Label == "" {
				r.Label = node.Content[i].Value
			}
			out = append(out, r)
		}
		*rs = out
	default:
		return fmt.Errorf("line %d: score ranges must be a list or a mapping", node.Line)
	}
	return nil
}

// GenderTable holds the ranges for one gender, optionally split by grade bucket.
type GenderTable struct {
	Ranges RangeSet
	Grades map[int]RangeSet
}

// Stratified reports whether the table is split by grade bucket.
func (g GenderTable) Stratified() bool {
	return len(g.Grades) > 0
}

// UnmarshalYAML detects grade buckets by their "gradeN" keys.
func (g *GenderTable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode && len(node.Content) > 0 && allGradeKeys(node) {
		grades := make(map[int]RangeSet, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			m := gradeBucketPattern.FindStringSubmatch(node.Content[i].Value)
			level, _ := strconv.Atoi(m[1])
			var rs RangeSet
			if err := node.Content[i+1].Decode(&rs); err != nil {
				return err
			}
			grades[level] = rs
		}
		*g = GenderTable{Grades: grades}
		return nil
	}
	var rs RangeSet
	if err := node.Decode(&rs); err != nil {
		return err
	}
	*g = GenderTable{Ranges: rs}
	return nil
}

func allGradeKeys(node *yaml.Node) bool {
	for i := 0; i < len(node.Content); i += 2 {
		if !gradeBucketPattern.MatchString(node.Content[i].Value) {
			return false
		}
	}
	return true
}

// MarshalJSON writes either a range list or a "gradeN" keyed object.
func (g GenderTable) MarshalJSON() ([]byte, error) {
	if !g.Stratified() {
		if g.Ranges == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(g.Ranges)
	}
	out := make(map[string]RangeSet, len(g.Grades))
	for level, rs := range g.Grades {
		out[GradeBucket(level)] = rs
	}
	return json.Marshal(out)
}

// GradeBuckets lists the bucket levels in ascending order.
func (g GenderTable) GradeBuckets() []int {
	levels := make([]int, 0, len(g.Grades))
	for level := range g.Grades {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}

// GradeBucket names the bucket for a grade level.
func GradeBucket(level int) string {
	return "grade" + strconv.Itoa(level)
}

// ScoringTable is the lookup structure attached to an item: gender, then an
// optional grade bucket, then ordered ranges. Ranges is the genderless fallback.
type ScoringTable struct {
	Type        ValueType
	Description string
	Note        string
	Formula     string
	Genders     map[Gender]GenderTable
	Ranges      RangeSet
}

// Resolve selects the ranges that apply to a gender and grade level.
func (t ScoringTable) Resolve(gender Gender, level *int) (RangeSet, bool) {
	gt, ok := t.Genders[gender]
	if !ok {
		if len(t.Ranges) == 0 {
			return nil, false
		}
		return t.Ranges, true
	}
	if !gt.Stratified() {
		return gt.Ranges, true
	}
	if level == nil {
		return nil, false
	}
	rs, ok := gt.Grades[*level]
	return rs, ok
}

// Scored reports whether the table carries any ranges at all.
func (t ScoringTable) Scored() bool {
	return len(t.Ranges) > 0 || len(t.Genders) > 0
}

// UnmarshalYAML reads the table, keeping range order.
func (t *ScoringTable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		*t = ScoringTable{}
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: scoring table must be a mapping", node.Line)
	}
	out := ScoringTable{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		var err error
		switch key {
		case "type":
			err = val.Decode(&out.Type)
		case "description":
			err = val.Decode(&out.Description)
		case "note":
			err = val.Decode(&out.Note)
		case "formula":
			err = val.Decode(&out.Formula)
		case "ranges":
			err = val.Decode(&out.Ranges)
		case string(GenderMale), string(GenderFemale):
			var gt GenderTable
			if err = val.Decode(&gt); err == nil {
				if out.Genders == nil {
					out.Genders = make(map[Gender]GenderTable, 2)
				}
				out.Genders[Gender(key)] = gt
			}
		}
		if err != nil {
			return fmt.Errorf("scoring.%s: %w", key, err)
		}
	}
	*t = out
	return nil
}

type scoringTableJSON struct {
	Type        ValueType    `json:"type,omitempty"`
	Description string       `json:"description,omitempty"`
	Note        string       `json:"note,omitempty"`
	Formula     string       `json:"formula,omitempty"`
	Male        *GenderTable `json:"male,omitempty"`
	Female      *GenderTable `json:"female,omitempty"`
	Ranges      RangeSet     `json:"ranges,omitempty"`
}

// MarshalJSON writes the canonical list-based shape.
func (t ScoringTable) MarshalJSON() ([]byte, error) {
	out := scoringTableJSON{
		Type:        t.Type,
		Description: t.Description,
		Note:        t.Note,
		Formula:     t.Formula,
		Ranges:      t.Ranges,
	}
	if gt, ok := t.Genders[GenderMale]; ok {
		out.Male = &gt
	}
	if gt, ok := t.Genders[GenderFemale]; ok {
		out.Female = &gt
	}
	return json.Marshal(out)
}

// UnmarshalJSON goes through the YAML decoder so keyed range objects keep their order.
func (t *ScoringTable) UnmarshalJSON(data []byte) error {
	return yaml.Unmarshal(data, t)
}

// Value implements driver.Valuer for JSONB columns.
func (t ScoringTable) Value() (driver.Value, error) {
	return json.Marshal(t)
}

// Scan implements sql.Scanner for JSONB columns.
func (t *ScoringTable) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = ScoringTable{}
		return nil
	case []byte:
		return t.UnmarshalJSON(v)
	case string:
		return t.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("scan scoring table: unsupported type %T", src)
	}
}
