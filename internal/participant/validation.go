package participant

import (
	"fmt"
	"net/mail"
	"strings"
)

// ValidationError represents a single validation error for a form field.
type ValidationError struct {
	Field   string `json:"field"`           // Field name as shown on the form
	Value   string `json:"value,omitempty"` // The invalid value
	Message string `json:"message"`         // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors collects every problem found on a form.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// For returns the message for field, or "" when the field is valid.
func (errs ValidationErrors) For(field string) string {
	for _, e := range errs {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// Registration is the walk-up registration form. Name, email and phone are
// required here; the stored record itself enforces nothing.
type Registration struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Shirts    string `json:"shirts"`
}

// Validate returns nil or a ValidationErrors listing every problem.
func (r Registration) Validate() error {
	var errs ValidationErrors

	required := []struct {
		field, value string
	}{
		{"firstName", r.FirstName},
		{"lastName", r.LastName},
		{"email", r.Email},
		{"phone", r.Phone},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, ValidationError{Field: f.field, Message: "is required"})
		}
	}

	if email := strings.TrimSpace(r.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			errs = append(errs, ValidationError{Field: "email", Value: email, Message: "is not a valid email address"})
		}
	}

	if r.Shirts != "" {
		if _, ok := ParseShirtSize(r.Shirts); !ok {
			errs = append(errs, ValidationError{Field: "shirts", Value: r.Shirts, Message: "is not a known shirt size"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
