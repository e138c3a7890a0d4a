// requests.go defines the query and mutation schemas for member requests,
// including the closed status set for the admin review transition.
package validation

import "net/url"

var (
	requestTypes      = []string{"funding", "event_support", "information", "membership", "other"}
	requestPriorities = []string{"low", "medium", "high", "urgent"}

	// RequestStatuses is the closed set of reviewable states. A status
	// transition to anything outside this set is a validation failure and
	// must leave the record unchanged.
	RequestStatuses = []string{"pending", "under_review", "approved", "denied"}
)

const (
	requestQueryMaxLimit  = 50
	requestTitleMin       = 3
	requestTitleMax       = 200
	requestDescriptionMin = 10
	requestDescriptionMax = 2000
	requestMaxAttachments = 5
	requestAttachmentMax  = 500
	requestReviewNotesMax = 2000
)

// RequestQuery is the normalized request list filter. SubmittedBy is only
// honored for admin callers; handlers overwrite it with the caller's own id
// for everyone else.
type RequestQuery struct {
	Status      string
	Type        string
	SubmittedBy string
	Pagination
}

// ValidateRequestQuery checks request list parameters.
func ValidateRequestQuery(values url.Values) (*RequestQuery, Errors) {
	var errs Errors
	q := &RequestQuery{}

	q.Pagination = parsePagination(values, requestQueryMaxLimit, &errs)

	if status := values.Get("status"); status != "" {
		checkEnum("status", status, RequestStatuses, &errs)
		q.Status = status
	}
	if typ := values.Get("type"); typ != "" {
		checkEnum("type", typ, requestTypes, &errs)
		q.Type = typ
	}
	q.SubmittedBy = values.Get("submittedBy")

	if !errs.Ok() {
		return nil, errs
	}
	return q, nil
}

// RequestCreateInput is the raw create payload.
type RequestCreateInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Priority    string   `json:"priority"`
	Attachments []string `json:"attachments"`
}

// RequestCreate is the normalized create payload. Submitter identity, status,
// and timestamps are server-stamped by the handler, never client-supplied.
type RequestCreate struct {
	Title       string
	Description string
	Type        string
	Priority    string
	Attachments []string
}

// ValidateRequestCreate checks a request create payload.
func ValidateRequestCreate(in RequestCreateInput) (*RequestCreate, Errors) {
	var errs Errors

	title := checkText("title", in.Title, requestTitleMin, requestTitleMax, &errs)
	description := checkText("description", in.Description, requestDescriptionMin, requestDescriptionMax, &errs)
	checkEnum("type", in.Type, requestTypes, &errs)
	checkEnum("priority", in.Priority, requestPriorities, &errs)
	attachments := checkStringArray("attachments", in.Attachments, requestMaxAttachments, requestAttachmentMax, &errs)
	if in.Attachments == nil {
		attachments = nil
	}

	if !errs.Ok() {
		return nil, errs
	}
	return &RequestCreate{
		Title:       title,
		Description: description,
		Type:        in.Type,
		Priority:    in.Priority,
		Attachments: attachments,
	}, nil
}

// RequestStatusInput is the raw status transition payload.
type RequestStatusInput struct {
	Status      string `json:"status"`
	ReviewNotes string `json:"reviewNotes"`
}

// RequestStatusUpdate is the normalized status transition.
type RequestStatusUpdate struct {
	Status      string
	ReviewNotes string
}

// ValidateRequestStatus checks a status transition payload against the
// closed status set.
func ValidateRequestStatus(in RequestStatusInput) (*RequestStatusUpdate, Errors) {
	var errs Errors

	checkEnum("status", in.Status, RequestStatuses, &errs)
	notes := checkOptionalText("reviewNotes", in.ReviewNotes, requestReviewNotesMax, &errs)

	if !errs.Ok() {
		return nil, errs
	}
	return &RequestStatusUpdate{Status: in.Status, ReviewNotes: notes}, nil
}
