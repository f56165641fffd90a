package cohort

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrNoCohorts is returned when a form lists no participating cohorts.
	ErrNoCohorts = errors.New("at least one participating cohort is required")

	enrollmentYearPattern = regexp.MustCompile(`^\d{4}$`)
	arabicClassPattern    = regexp.MustCompile(`^(\d+)班?$`)
)

var chineseClassNumbers = map[string]int{
	"一": 1, "二": 2, "三": 3, "四": 4, "五": 5,
	"六": 6, "七": 7, "八": 8, "九": 9, "十": 10,
	"十一": 11, "十二": 12, "十三": 13, "十四": 14, "十五": 15,
	"十六": 16, "十七": 17, "十八": 18, "十九": 19, "二十": 20,
}

// DisplayCohort renders an enrollment year for people, e.g. "2022" -> "2022级".
func DisplayCohort(cohort string) string {
	return strings.TrimSuffix(cohort, cohortSuffix) + cohortSuffix
}

// DisplayCohorts joins several cohorts with the Chinese enumeration comma.
func DisplayCohorts(cohorts []string) string {
	out := make([]string, len(cohorts))
	for i, c := range cohorts {
		out[i] = DisplayCohort(c)
	}
	return strings.Join(out, "、")
}

// CanParticipate reports whether a class cohort is listed on a form.
func CanParticipate(classCohort string, formCohorts []string) bool {
	normalized := strings.TrimSuffix(classCohort, cohortSuffix)
	for _, c := range formCohorts {
		if strings.TrimSuffix(c, cohortSuffix) == normalized {
			return true
		}
	}
	return false
}

// ValidateCohorts checks a form's participating cohorts are non-empty 4-digit years.
func ValidateCohorts(cohorts []string) error {
	if len(cohorts) == 0 {
		return ErrNoCohorts
	}
	for _, c := range cohorts {
		if !enrollmentYearPattern.MatchString(c) {
			return fmt.Errorf("%w: %q, expected a 4-digit year such as \"2022\"", ErrInvalidCohort, c)
		}
	}
	return nil
}

// ExtractClassNumber reads the ordinal from class names like "一班", "十二班" or "3班".
// Names that carry no recognisable number map to 1.
func ExtractClassNumber(className string) int {
	name := strings.TrimSpace(className)
	if n, ok := chineseClassNumbers[strings.TrimSuffix(name, "班")]; ok {
		return n
	}
	if m := arabicClassPattern.FindStringSubmatch(name); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return 1
}
