// meetings.go defines the query and mutation schemas for council meetings.
package validation

import (
	"net/url"
	"time"
)

var meetingTypes = []string{"general", "board", "committee", "special"}

const (
	meetingQueryMaxLimit  = 50
	meetingTitleMin       = 3
	meetingTitleMax       = 200
	meetingDescriptionMin = 10
	meetingDescriptionMax = 5000
	meetingLocationMax    = 300
	meetingMaxAttachments = 5
	meetingAttachmentMax  = 500
)

// MeetingQuery is the normalized meeting list filter.
type MeetingQuery struct {
	Type string
	From string
	To   string
	Pagination
}

// ValidateMeetingQuery checks meeting list parameters.
func ValidateMeetingQuery(values url.Values) (*MeetingQuery, Errors) {
	var errs Errors
	q := &MeetingQuery{}

	q.Pagination = parsePagination(values, meetingQueryMaxLimit, &errs)

	if typ := values.Get("type"); typ != "" {
		checkEnum("type", typ, meetingTypes, &errs)
		q.Type = typ
	}

	q.From = values.Get("from")
	q.To = values.Get("to")
	checkDate("from", q.From, &errs)
	checkDate("to", q.To, &errs)

	if !errs.Ok() {
		return nil, errs
	}
	return q, nil
}

// MeetingCreateInput is the raw create payload.
type MeetingCreateInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Location    string   `json:"location"`
	StartsAt    string   `json:"startsAt"`
	Attachments []string `json:"attachments"`
}

// MeetingCreate is the normalized create payload.
type MeetingCreate struct {
	Title       string
	Description string
	Type        string
	Location    string
	StartsAt    time.Time
	Attachments []string
}

// ValidateMeetingCreate checks a meeting create payload.
func ValidateMeetingCreate(in MeetingCreateInput) (*MeetingCreate, Errors) {
	var errs Errors

	title := checkText("title", in.Title, meetingTitleMin, meetingTitleMax, &errs)
	description := checkText("description", in.Description, meetingDescriptionMin, meetingDescriptionMax, &errs)
	checkEnum("type", in.Type, meetingTypes, &errs)
	location := checkOptionalText("location", in.Location, meetingLocationMax, &errs)
	attachments := checkStringArray("attachments", in.Attachments, meetingMaxAttachments, meetingAttachmentMax, &errs)
	if in.Attachments == nil {
		attachments = nil
	}

	var startsAt time.Time
	if in.StartsAt == "" {
		errs.Add("startsAt", "is required")
	} else {
		t, err := time.Parse(time.RFC3339, in.StartsAt)
		if err != nil {
			errs.Add("startsAt", "must be an RFC 3339 timestamp")
		} else {
			startsAt = t
		}
	}

	if !errs.Ok() {
		return nil, errs
	}
	return &MeetingCreate{
		Title:       title,
		Description: description,
		Type:        in.Type,
		Location:    location,
		StartsAt:    startsAt,
		Attachments: attachments,
	}, nil
}
