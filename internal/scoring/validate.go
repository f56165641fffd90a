package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// IssueKind classifies a catalog integrity problem.
type IssueKind string

const (
	IssueDuplicate  IssueKind = "duplicate"
	IssueWeight     IssueKind = "weight"
	IssueCalculated IssueKind = "calculated"
	IssueEmpty      IssueKind = "empty"
	IssueBound      IssueKind = "bound"
	IssueOverlap    IssueKind = "overlap"
	IssueGap        IssueKind = "gap"
	IssueDirection  IssueKind = "direction"
)

const boundTolerance = 1e-9

// Issue is one problem found in an authored catalog.
type Issue struct {
	Item    string    `json:"item_code"`
	Table   string    `json:"table,omitempty"`
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	if i.Table == "" {
		return fmt.Sprintf("%s: %s: %s", i.Item, i.Kind, i.Message)
	}
	return fmt.Sprintf("%s[%s]: %s: %s", i.Item, i.Table, i.Kind, i.Message)
}

// Validate reports duplicated codes, bad weights, and range sets that overlap,
// leave gaps wider than the item's resolution, or contradict the declared direction.
func (c *Catalog) Validate() []Issue {
	var issues []Issue
	seen := make(map[string]struct{}, len(c.Items))
	for _, item := range c.Items {
		if _, dup := seen[item.Code]; dup {
			issues = append(issues, Issue{Item: item.Code, Kind: IssueDuplicate, Message: "item code used more than once"})
		}
		seen[item.Code] = struct{}{}
		issues = append(issues, ValidateItem(item)...)
	}
	for _, g := range []Gender{GenderMale, GenderFemale} {
		if total := c.TotalWeight(g); total != 100 {
			issues = append(issues, Issue{Item: "*", Table: string(g), Kind: IssueWeight, Message: fmt.Sprintf("weights sum to %d, expected 100", total)})
		}
	}
	return issues
}

// ValidateItem checks a single item's declaration and scoring table.
func ValidateItem(item Item) []Issue {
	var issues []Issue
	if strings.TrimSpace(item.Code) == "" {
		issues = append(issues, Issue{Item: item.Name, Kind: IssueEmpty, Message: "item code is empty"})
	}
	if item.Weight < 0 || item.Weight > 100 {
		issues = append(issues, Issue{Item: item.Code, Kind: IssueWeight, Message: fmt.Sprintf("weight %d outside 0..100", item.Weight)})
	}
	if item.Code == CodeBMI && !item.Calculated {
		issues = append(issues, Issue{Item: item.Code, Kind: IssueCalculated, Message: "bmi is derived and must be marked calculated"})
	}
	if item.Weight > 0 && !item.Scoring.Scored() {
		issues = append(issues, Issue{Item: item.Code, Kind: IssueEmpty, Message: "weighted item has no scoring ranges"})
	}

	resolution := item.Rule().Resolution()
	if item.Type() == TypeTime && resolution < 1 && item.Validation == nil {
		resolution = 1
	}
	check := func(table string, rs RangeSet) {
		issues = append(issues, validateRanges(item, table, rs, resolution)...)
	}
	if len(item.Scoring.Ranges) > 0 {
		check("ranges", item.Scoring.Ranges)
	}
	for _, g := range []Gender{GenderMale, GenderFemale} {
		gt, ok := item.Scoring.Genders[g]
		if !ok {
			continue
		}
		if !item.AppliesTo(g) {
			issues = append(issues, Issue{Item: item.Code, Table: string(g), Kind: IssueEmpty, Message: "table for a gender the item is restricted from"})
		}
		if !gt.Stratified() {
			check(string(g), gt.Ranges)
			continue
		}
		for _, level := range gt.GradeBuckets() {
			check(string(g)+"."+GradeBucket(level), gt.Grades[level])
		}
	}
	return issues
}

type normalizedRange struct {
	lo, hi float64
	score  float64
	label  string
}

func validateRanges(item Item, table string, rs RangeSet, resolution float64) []Issue {
	var issues []Issue
	add := func(kind IssueKind, format string, args ...interface{}) {
		issues = append(issues, Issue{Item: item.Code, Table: table, Kind: kind, Message: fmt.Sprintf(format, args...)})
	}
	if len(rs) == 0 {
		add(IssueEmpty, "no ranges")
		return issues
	}

	t := item.Type()
	normalized := make([]normalizedRange, 0, len(rs))
	for i, r := range rs {
		name := r.Label
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}
		lo, hasLo, hi, hasHi, err := r.bounds(t)
		if err != nil {
			add(IssueBound, "range %s: %v", name, err)
			continue
		}
		if !hasLo && !hasHi {
			add(IssueBound, "range %s has neither min nor max", name)
			continue
		}
		if !hasLo {
			lo = math.Inf(-1)
		}
		if !hasHi {
			hi = math.Inf(1)
		}
		if lo > hi {
			add(IssueBound, "range %s has min greater than max", name)
			continue
		}
		normalized = append(normalized, normalizedRange{lo: lo, hi: hi, score: r.Score, label: name})
	}
	if len(normalized) == 0 {
		return issues
	}

	sort.SliceStable(normalized, func(i, j int) bool { return normalized[i].lo < normalized[j].lo })
	if first := normalized[0]; !math.IsInf(first.lo, -1) {
		add(IssueGap, "values below %v are unscored", first.lo)
	}
	if last := normalized[len(normalized)-1]; !math.IsInf(last.hi, 1) {
		add(IssueGap, "values above %v are unscored", last.hi)
	}
	for i := 1; i < len(normalized); i++ {
		prev, cur := normalized[i-1], normalized[i]
		switch {
		case cur.lo <= prev.hi:
			add(IssueOverlap, "ranges %s and %s overlap", prev.label, cur.label)
		case cur.lo-prev.hi > resolution+boundTolerance:
			add(IssueGap, "values between %v and %v are unscored", prev.hi, cur.lo)
		}
		if item.HigherIsBetter != nil {
			if *item.HigherIsBetter && cur.score < prev.score {
				add(IssueDirection, "score drops from %v to %v as the value rises", prev.score, cur.score)
			}
			if !*item.HigherIsBetter && cur.score > prev.score {
				add(IssueDirection, "score rises from %v to %v as the value rises", prev.score, cur.score)
			}
		}
	}
	return issues
}
