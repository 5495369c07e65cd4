package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pkordes/tourdesk/internal/domain"
)

// experienceRules is the validated view of an experience after input has
// been applied. Field names double as the messages' field keys. Upper bounds
// keep values inside NUMERIC(10,2) and INTEGER columns: a year of duration,
// a year of booking notice.
type experienceRules struct {
	Name               string  `validate:"required,max=200"`
	Currency           string  `validate:"len=3,alpha"`
	DurationMinutes    int     `validate:"gte=0,lte=525600"`
	MinGroupSize       int     `validate:"gte=1,lte=100000"`
	MaxGroupSize       int     `validate:"gte=1,lte=100000,gtefield=MinGroupSize"`
	Price              float64 `validate:"gte=0,lte=99999999.99"`
	BookingNoticeHours int     `validate:"gte=0,lte=8760"`
	Archived           bool
	Active             bool `validate:"excluded_if=Archived true"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateExperience checks the merged record. Every failure wraps
// domain.ErrValidation and names the offending fields.
func validateExperience(e domain.Experience) error {
	r := experienceRules{
		Name:               e.Name,
		Currency:           e.Currency,
		DurationMinutes:    e.DurationMinutes,
		MinGroupSize:       e.MinGroupSize,
		MaxGroupSize:       e.MaxGroupSize,
		Price:              e.Price,
		BookingNoticeHours: e.BookingNoticeHours,
		Archived:           e.IsArchived,
		Active:             e.IsActive,
	}

	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, ruleMessage(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

func ruleMessage(fe validator.FieldError) string {
	field := snake(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gtefield":
		return "max_group_size must be at least min_group_size"
	case "excluded_if":
		return "an archived experience cannot be active"
	case "len":
		return fmt.Sprintf("%s must be %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}

// snake converts a Go field name to its column name.
func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
