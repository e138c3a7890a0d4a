// documents.go defines the query and mutation schemas for council documents.
package validation

import "net/url"

// Document categories form a closed enumeration; anything else is rejected.
var documentCategories = []string{"bylaws", "minutes", "forms", "reports", "newsletters", "other"}

// Document field bounds.
const (
	documentQueryMaxLimit  = 50
	documentTitleMin       = 3
	documentTitleMax       = 200
	documentDescriptionMin = 10
	documentDescriptionMax = 2000
	documentMaxTags        = 10
	documentTagMaxLen      = 50
	documentSearchMax      = 200
)

// DocumentQuery is the normalized document list filter.
type DocumentQuery struct {
	Category   string
	Restricted *bool
	Search     string
	Pagination
}

// ValidateDocumentQuery checks document list parameters. Returns the
// normalized query iff errs is empty.
func ValidateDocumentQuery(values url.Values) (*DocumentQuery, Errors) {
	var errs Errors
	q := &DocumentQuery{}

	q.Pagination = parsePagination(values, documentQueryMaxLimit, &errs)

	if category := values.Get("category"); category != "" {
		checkEnum("category", category, documentCategories, &errs)
		q.Category = category
	}

	q.Restricted = parseOptionalBool(values, "restricted", &errs)
	q.Search = checkOptionalText("search", values.Get("search"), documentSearchMax, &errs)

	if !errs.Ok() {
		return nil, errs
	}
	return q, nil
}

// DocumentUploadInput is the raw create payload as bound from the request.
type DocumentUploadInput struct {
	Title       string   `json:"title" form:"title"`
	Description string   `json:"description" form:"description"`
	Category    string   `json:"category" form:"category"`
	Restricted  bool     `json:"restricted" form:"restricted"`
	Tags        []string `json:"tags" form:"tags"`
}

// DocumentUpload is the normalized create payload.
type DocumentUpload struct {
	Title       string
	Description string
	Category    string
	Restricted  bool
	Tags        []string
}

// ValidateDocumentUpload checks a document create payload.
func ValidateDocumentUpload(in DocumentUploadInput) (*DocumentUpload, Errors) {
	var errs Errors

	title := checkText("title", in.Title, documentTitleMin, documentTitleMax, &errs)
	description := checkText("description", in.Description, documentDescriptionMin, documentDescriptionMax, &errs)
	checkEnum("category", in.Category, documentCategories, &errs)
	tags := checkStringArray("tags", in.Tags, documentMaxTags, documentTagMaxLen, &errs)

	if !errs.Ok() {
		return nil, errs
	}
	return &DocumentUpload{
		Title:       title,
		Description: description,
		Category:    in.Category,
		Restricted:  in.Restricted,
		Tags:        tags,
	}, nil
}

// DocumentUpdateInput is the raw update payload. Pointer fields distinguish
// "absent" from "set to zero value"; absent fields keep their stored value.
type DocumentUpdateInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Restricted  *bool    `json:"restricted"`
	Tags        []string `json:"tags"`
}

// DocumentUpdate is the normalized update payload.
type DocumentUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Restricted  *bool
	Tags        []string
}

// ValidateDocumentUpdate checks a partial document update. Only supplied
// fields are validated.
func ValidateDocumentUpdate(in DocumentUpdateInput) (*DocumentUpdate, Errors) {
	var errs Errors
	out := &DocumentUpdate{Restricted: in.Restricted}

	if in.Title != nil {
		title := checkText("title", *in.Title, documentTitleMin, documentTitleMax, &errs)
		out.Title = &title
	}
	if in.Description != nil {
		description := checkText("description", *in.Description, documentDescriptionMin, documentDescriptionMax, &errs)
		out.Description = &description
	}
	if in.Category != nil {
		checkEnum("category", *in.Category, documentCategories, &errs)
		out.Category = in.Category
	}
	if in.Tags != nil {
		out.Tags = checkStringArray("tags", in.Tags, documentMaxTags, documentTagMaxLen, &errs)
	}

	if !errs.Ok() {
		return nil, errs
	}
	return out, nil
}
