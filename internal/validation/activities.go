// activities.go defines the query schema for the activity feed. The feed is
// read-only; activity records are created by the recorder, not by clients.
package validation

import "net/url"

// ActivityQuery is the normalized activity feed query.
type ActivityQuery struct {
	Limit int
}

// ValidateActivityQuery checks the feed limit. maxLimit comes from
// configuration (audit.feed_max_limit); values above it are clamped.
func ValidateActivityQuery(values url.Values, maxLimit int) (*ActivityQuery, Errors) {
	var errs Errors
	q := &ActivityQuery{Limit: DefaultLimit}

	if raw := values.Get("limit"); raw != "" {
		n, ok := coerceInt(raw)
		switch {
		case !ok || n < 1:
			errs.Add("limit", "must be a positive integer")
		case n > maxLimit:
			q.Limit = maxLimit
		default:
			q.Limit = n
		}
	}

	if !errs.Ok() {
		return nil, errs
	}
	return q, nil
}
