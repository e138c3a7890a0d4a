// messages.go defines the query and mutation schemas for member messages.
package validation

import "net/url"

var messageAudiences = []string{"all", "board", "chapter_leads", "committee"}

const (
	messageQueryMaxLimit  = 50
	messageSubjectMin     = 3
	messageSubjectMax     = 200
	messageBodyMin        = 10
	messageBodyMax        = 5000
	messageMaxAttachments = 5
	messageAttachmentMax  = 500
)

// MessageQuery is the normalized message list filter.
type MessageQuery struct {
	Unread   *bool
	Audience string
	Pagination
}

// ValidateMessageQuery checks message list parameters.
func ValidateMessageQuery(values url.Values) (*MessageQuery, Errors) {
	var errs Errors
	q := &MessageQuery{}

	q.Pagination = parsePagination(values, messageQueryMaxLimit, &errs)
	q.Unread = parseOptionalBool(values, "unread", &errs)

	if audience := values.Get("targetAudience"); audience != "" {
		checkEnum("targetAudience", audience, messageAudiences, &errs)
		q.Audience = audience
	}

	if !errs.Ok() {
		return nil, errs
	}
	return q, nil
}

// MessageCreateInput is the raw create payload.
type MessageCreateInput struct {
	Subject        string   `json:"subject"`
	Body           string   `json:"body"`
	TargetAudience string   `json:"targetAudience"`
	Attachments    []string `json:"attachments"`
}

// MessageCreate is the normalized create payload.
type MessageCreate struct {
	Subject        string
	Body           string
	TargetAudience string
	Attachments    []string
}

// ValidateMessageCreate checks a message create payload.
func ValidateMessageCreate(in MessageCreateInput) (*MessageCreate, Errors) {
	var errs Errors

	subject := checkText("subject", in.Subject, messageSubjectMin, messageSubjectMax, &errs)
	body := checkText("body", in.Body, messageBodyMin, messageBodyMax, &errs)
	checkEnum("targetAudience", in.TargetAudience, messageAudiences, &errs)
	attachments := checkStringArray("attachments", in.Attachments, messageMaxAttachments, messageAttachmentMax, &errs)
	if in.Attachments == nil {
		attachments = nil
	}

	if !errs.Ok() {
		return nil, errs
	}
	return &MessageCreate{
		Subject:        subject,
		Body:           body,
		TargetAudience: in.TargetAudience,
		Attachments:    attachments,
	}, nil
}
