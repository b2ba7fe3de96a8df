package booking

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the format of service dates.
const DateLayout = "2006-01-02"

// MaxNotesLength caps the notes attached to a status change.
const MaxNotesLength = 1000

// NewBooking is the input of Create.  Every field except CustomerID is
// required; string fields are trimmed before validation.
type NewBooking struct {
	ProviderID   uint64 `json:"provider_id" validate:"required"`
	ProviderName string `json:"provider_name" validate:"required,max=255"`
	CustomerID   uint64 `json:"customer_id"`
	CustomerName string `json:"customer_name" validate:"required,max=255"`
	Service      string `json:"service" validate:"required,max=255"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// normalize trims surrounding whitespace so blank values count as missing.
func (in NewBooking) normalize() NewBooking {
	in.ProviderName = strings.TrimSpace(in.ProviderName)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Service = strings.TrimSpace(in.Service)
	in.Date = strings.TrimSpace(in.Date)
	return in
}

// Validate checks the input and returns a *ValidationError naming every
// offending field.
func (in NewBooking) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	issues := make([]FieldIssue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, FieldIssue{Field: jsonField(fe.Field()), Message: issueMessage(fe)})
	}
	return &ValidationError{Issues: issues}
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be a date formatted as YYYY-MM-DD"
	case "max":
		return "must not exceed " + fe.Param() + " characters"
	}
	return "is invalid"
}

// jsonField maps struct field names to the names clients send.
func jsonField(name string) string {
	switch name {
	case "ProviderID":
		return "provider_id"
	case "ProviderName":
		return "provider_name"
	case "CustomerID":
		return "customer_id"
	case "CustomerName":
		return "customer_name"
	case "Service":
		return "service"
	case "Date":
		return "date"
	}
	return strings.ToLower(name)
}
