// Package cronexpr computes next-fire instants for 5-field cron schedules.
package cronexpr

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/cronhub/scheduler/internal/domain"
	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// rangePart matches a single "a-b" or "a-b/n" comma-separated token.
var rangePart = regexp.MustCompile(`^(\d+)-(\d+)(?:/\d+)?$`)

// horizon bounds how far into the future Next will search before giving up,
// satisfying the "reasonable horizon (>= 4 years)" contract.
const horizonYears = 5

// Expr is a parsed, validated 5-field cron expression. Day and day-of-week
// combine with classical cron OR semantics when both are restricted —
// robfig/cron/v3 combines them with AND, so when both fields are non-"*"
// this wraps two single-restriction schedules and takes the earlier result.
type Expr struct {
	combined cron.Schedule // used when day and day-of-week are not both restricted
	domOnly  cron.Schedule // day restricted, day-of-week "*" — used for the OR path
	dowOnly  cron.Schedule // day-of-week restricted, day "*" — used for the OR path
	both     bool
}

// Parse validates the five fields and returns a reusable Expr. Fields left
// empty are treated as "*" (any value). Invalid syntax, a zero step
// ("*/0"), or an inverted range ("10-5") are rejected here, never at fire
// time.
func Parse(minute, hour, day, month, dayOfWeek string) (*Expr, error) {
	m, h, d, mo, dw := orStar(minute), orStar(hour), orStar(day), orStar(month), orStar(dayOfWeek)

	for _, field := range []string{m, h, d, mo, dw} {
		if err := validateField(field); err != nil {
			return nil, err
		}
	}

	combined, err := parser.Parse(fmt.Sprintf("%s %s %s %s %s", m, h, d, mo, dw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTrigger, err)
	}

	e := &Expr{combined: combined}
	e.both = d != "*" && dw != "*"
	if e.both {
		e.domOnly, err = parser.Parse(fmt.Sprintf("%s %s %s %s *", m, h, d, mo))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTrigger, err)
		}
		e.dowOnly, err = parser.Parse(fmt.Sprintf("%s %s * %s %s", m, h, mo, dw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTrigger, err)
		}
	}
	return e, nil
}

// Next returns the smallest instant strictly after `after` that matches the
// expression, or ok=false if none exists within the search horizon.
func (e *Expr) Next(after time.Time) (next time.Time, ok bool) {
	limit := after.AddDate(horizonYears, 0, 0)

	if e.both {
		domNext := e.domOnly.Next(after)
		dowNext := e.dowOnly.Next(after)
		switch {
		case domNext.IsZero():
			next = dowNext
		case dowNext.IsZero():
			next = domNext
		case domNext.Before(dowNext):
			next = domNext
		default:
			next = dowNext
		}
	} else {
		next = e.combined.Next(after)
	}

	if next.IsZero() || next.After(limit) {
		return time.Time{}, false
	}
	return next, true
}

func orStar(field string) string {
	if field == "" {
		return "*"
	}
	return field
}

// validateField rejects zero steps and inverted ranges up front. robfig's
// parser otherwise accepts "22-2" as a wrapping range and "*/0" sometimes
// slips through as a divide-by-effectively-one step on older parser
// versions, neither of which this scheduler's cron contract allows.
func validateField(field string) error {
	for _, part := range splitList(field) {
		if stepIdx := indexByte(part, '/'); stepIdx >= 0 {
			step := part[stepIdx+1:]
			n, err := strconv.Atoi(step)
			if err == nil && n == 0 {
				return fmt.Errorf("%w: step of 0 in %q", domain.ErrInvalidTrigger, field)
			}
		}
		if m := rangePart.FindStringSubmatch(part); m != nil {
			lo, _ := strconv.Atoi(m[1])
			hi, _ := strconv.Atoi(m[2])
			if lo > hi {
				return fmt.Errorf("%w: inverted range %q", domain.ErrInvalidTrigger, part)
			}
		}
	}
	return nil
}

func splitList(field string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(field); i++ {
		if field[i] == ',' {
			parts = append(parts, field[start:i])
			start = i + 1
		}
	}
	return append(parts, field[start:])
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
