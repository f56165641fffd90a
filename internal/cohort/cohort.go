package cohort

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultDuration is the length of study in years for a standard school.
	DefaultDuration = 3
	// DefaultStartMonth is the calendar month an academic year begins in.
	DefaultStartMonth = time.September

	// UnknownGradeName is returned for levels outside the school's duration.
	UnknownGradeName = "未知年级"

	cohortSuffix = "级"
)

var (
	// ErrParse is the root of every malformed-input error in this package.
	ErrParse = errors.New("cohort: parse error")
	// ErrInvalidCohort reports a cohort that is not a 4-digit enrollment year.
	ErrInvalidCohort = fmt.Errorf("%w: invalid cohort", ErrParse)
	// ErrInvalidAcademicYear reports an academic year not shaped like "YYYY-YYYY".
	ErrInvalidAcademicYear = fmt.Errorf("%w: invalid academic year", ErrParse)
)

var (
	cohortPattern       = regexp.MustCompile(`^\d{4}(级)?$`)
	academicYearPattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
)

var chineseNumerals = []string{"", "一", "二", "三", "四", "五", "六", "七", "八", "九", "十", "十一", "十二"}

// Status describes where a cohort sits relative to its years of study.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusEnrolled   Status = "ENROLLED"
	StatusGraduated  Status = "GRADUATED"
)

// Standing is the derived position of a cohort within an academic year.
type Standing struct {
	// Level is academicYearStart - enrollmentYear + 1 and may fall outside 1..Duration.
	Level  int    `json:"level"`
	Status Status `json:"status"`
}

// Clock abstracts wall-clock access.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the local wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Calculator derives grade levels from an enrollment year and an academic year.
// The zero value is not usable; build one with New.
type Calculator struct {
	duration   int
	startMonth time.Month
	clock      Clock
}

// Option customises a Calculator.
type Option func(*Calculator)

// WithClock overrides the clock used by CurrentAcademicYear.
func WithClock(clock Clock) Option {
	return func(c *Calculator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithStartMonth changes the month an academic year begins in.
func WithStartMonth(month time.Month) Option {
	return func(c *Calculator) {
		if month >= time.January && month <= time.December {
			c.startMonth = month
		}
	}
}

// New builds a Calculator for a school with the given years of study.
// Non-positive durations fall back to DefaultDuration.
func New(duration int, opts ...Option) *Calculator {
	if duration <= 0 {
		duration = DefaultDuration
	}
	c := &Calculator{duration: duration, startMonth: DefaultStartMonth, clock: SystemClock}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Duration returns the configured years of study.
func (c *Calculator) Duration() int {
	return c.duration
}

// Standing resolves the cohort's level and status in the academic year.
func (c *Calculator) Standing(cohort, academicYear string) (Standing, error) {
	enrolled, err := ParseCohort(cohort)
	if err != nil {
		return Standing{}, err
	}
	start, err := ParseAcademicYear(academicYear)
	if err != nil {
		return Standing{}, err
	}

	level := start - enrolled + 1
	standing := Standing{Level: level, Status: StatusEnrolled}
	switch {
	case level < 1:
		standing.Status = StatusNotStarted
	case level > c.duration:
		standing.Status = StatusGraduated
	}
	return standing, nil
}

// GradeLevel returns the cohort's year of study, or false when the cohort has
// not started, has graduated, or either input is malformed.
func (c *Calculator) GradeLevel(cohort, academicYear string) (int, bool) {
	standing, err := c.Standing(cohort, academicYear)
	if err != nil || standing.Status != StatusEnrolled {
		return 0, false
	}
	return standing.Level, true
}

// IsGraduated reports whether the cohort finished its years of study before
// the academic year. Cohorts that have not started yet are not graduated.
func (c *Calculator) IsGraduated(cohort, academicYear string) bool {
	standing, err := c.Standing(cohort, academicYear)
	if err != nil {
		return false
	}
	return standing.Status == StatusGraduated
}

// GradeName maps a level to its display name, e.g. 1 -> "一年级".
func (c *Calculator) GradeName(level int) string {
	if level < 1 || level > c.duration || level >= len(chineseNumerals) {
		return UnknownGradeName
	}
	return chineseNumerals[level] + "年级"
}

// GraduationYear returns the calendar year the cohort's final academic year starts in.
func (c *Calculator) GraduationYear(cohort string) (string, error) {
	enrolled, err := ParseCohort(cohort)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", enrolled+c.duration-1), nil
}

// CurrentAcademicYear formats the academic year in progress according to the clock.
func (c *Calculator) CurrentAcademicYear() string {
	return AcademicYearAt(c.clock.Now(), c.startMonth)
}

// AcademicYearAt returns the "YYYY-YYYY" academic year containing t.
func AcademicYearAt(t time.Time, startMonth time.Month) string {
	year := t.Year()
	if t.Month() < startMonth {
		year--
	}
	return fmt.Sprintf("%d-%d", year, year+1)
}

// ParseCohort extracts the enrollment year, stripping a trailing "级".
func ParseCohort(cohort string) (int, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(cohort), cohortSuffix)
	if !enrollmentYearPattern.MatchString(trimmed) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCohort, cohort)
	}
	year, _ := strconv.Atoi(trimmed)
	return year, nil
}

// ParseAcademicYear returns the starting year of a "YYYY-YYYY" academic year.
func ParseAcademicYear(academicYear string) (int, error) {
	m := academicYearPattern.FindStringSubmatch(strings.TrimSpace(academicYear))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAcademicYear, academicYear)
	}
	start, _ := strconv.Atoi(m[1])
	return start, nil
}

// IsValidCohort reports whether cohort is a 4-digit year, optionally suffixed with "级".
func IsValidCohort(cohort string) bool {
	return cohortPattern.MatchString(cohort)
}

// IsValidAcademicYear reports whether s is shaped like "YYYY-YYYY" with consecutive years.
func IsValidAcademicYear(s string) bool {
	m := academicYearPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}
