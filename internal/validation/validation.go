// Package validation implements per-resource request schemas for the members
// API. Each resource has a query schema (list/filter parameters) and a
// mutation schema (create/update payloads). Validators never panic and never
// stop at the first violation: every violated field is reported as a
// "field: message" string so callers can surface the complete list in one
// round trip. Query-string values arrive as strings and are coerced to
// integers and booleans before constraints apply.
package validation

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Errors is an ordered list of "field: message" violation strings. A nil or
// empty Errors means the input passed validation.
type Errors []string

// Add appends a violation for the named field.
func (e *Errors) Add(field, message string) {
	*e = append(*e, fmt.Sprintf("%s: %s", field, message))
}

// Ok reports whether no violations were recorded.
func (e Errors) Ok() bool { return len(e) == 0 }

// Pagination bounds. Limits are clamped to the per-resource maximum rather
// than rejected so that a well-meaning client asking for "everything" gets
// the largest permitted page instead of an error.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Pagination is the normalized page/limit pair shared by all query schemas.
type Pagination struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int { return (p.Page - 1) * p.Limit }

// parsePagination reads page and limit from query values, applying defaults,
// positivity checks, and the per-resource limit cap.
func parsePagination(values url.Values, maxLimit int, errs *Errors) Pagination {
	p := Pagination{Page: DefaultPage, Limit: DefaultLimit}

	if raw := values.Get("page"); raw != "" {
		n, ok := coerceInt(raw)
		if !ok || n < 1 {
			errs.Add("page", "must be a positive integer")
		} else {
			p.Page = n
		}
	}

	if raw := values.Get("limit"); raw != "" {
		n, ok := coerceInt(raw)
		if !ok || n < 1 {
			errs.Add("limit", "must be a positive integer")
		} else if n > maxLimit {
			p.Limit = maxLimit
		} else {
			p.Limit = n
		}
	}

	return p
}

// coerceInt converts an all-digit string to an integer. Signs, spaces, and
// decimals are rejected: query values are coerced, not parsed leniently.
func coerceInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// coerceBool converts the literal strings "true" and "false" to booleans.
// Any other value is a coercion failure, not false.
func coerceBool(s string) (bool, bool) {
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

// parseOptionalBool reads an optional boolean query parameter, recording a
// violation when the value is present but not coercible.
func parseOptionalBool(values url.Values, field string, errs *Errors) *bool {
	raw := values.Get(field)
	if raw == "" {
		return nil
	}
	b, ok := coerceBool(raw)
	if !ok {
		errs.Add(field, "must be true or false")
		return nil
	}
	return &b
}

// checkText trims the value and checks its length bounds, recording a
// violation when out of range. Returns the trimmed value.
func checkText(field, value string, min, max int, errs *Errors) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) < min {
		errs.Add(field, fmt.Sprintf("must be at least %d characters", min))
	} else if len(trimmed) > max {
		errs.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return trimmed
}

// checkOptionalText is checkText for fields that may be empty.
func checkOptionalText(field, value string, max int, errs *Errors) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) > max {
		errs.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return trimmed
}

// checkEnum records a violation when value is not one of allowed. The empty
// string is only valid when "" is in allowed (optional enum fields include it).
func checkEnum(field, value string, allowed []string, errs *Errors) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	errs.Add(field, fmt.Sprintf("must be one of: %s", strings.Join(nonEmpty(allowed), ", ")))
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// checkDate validates a YYYY-MM-DD date-range boundary string.
func checkDate(field, value string, errs *Errors) {
	if value == "" {
		return
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		errs.Add(field, "must be a date in YYYY-MM-DD format")
	}
}

// checkStringArray checks array cardinality and per-item length bounds.
func checkStringArray(field string, items []string, maxItems, maxItemLen int, errs *Errors) []string {
	if len(items) > maxItems {
		errs.Add(field, fmt.Sprintf("must contain at most %d items", maxItems))
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			errs.Add(fmt.Sprintf("%s[%d]", field, i), "must not be empty")
			continue
		}
		if len(trimmed) > maxItemLen {
			errs.Add(fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("must be at most %d characters", maxItemLen))
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
