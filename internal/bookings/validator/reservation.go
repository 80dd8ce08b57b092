package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"divebook/pkg/logger"
	"divebook/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// ReservationValidator checks reservation requests before they reach the
// coordinator. Structural checks use struct tags, business rules are
// explicit.
type ReservationValidator struct {
	validate        *validator.Validate
	logger          *logger.Logger
	maxParticipants int
}

func NewReservationValidator(log *logger.Logger, maxParticipants int) *ReservationValidator {
	v := validator.New()

	if err := v.RegisterValidation("request_token", validateRequestToken); err != nil {
		log.Fatal("Failed to register 'request_token' validator",
			"error", err,
		)
	}

	log.Info("Reservation validator initialized successfully")

	return &ReservationValidator{
		validate:        v,
		logger:          log,
		maxParticipants: maxParticipants,
	}
}

// A request token is an opaque client-chosen string. It has to be stable
// across retries, so only length and charset are constrained.
func validateRequestToken(fl validator.FieldLevel) bool {
	token := fl.Field().String()
	if len(token) < 8 || len(token) > 128 {
		return false
	}
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}

func (v *ReservationValidator) Validate(req *model.ReservationRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if req.Participants > v.maxParticipants {
		return ValidationErrors{
			ValidationError{
				Field:   "Participants",
				Message: fmt.Sprintf("participants count (%d) exceeds the maximum of %d", req.Participants, v.maxParticipants),
			},
		}
	}

	if !req.SubmittedAt.IsZero() && req.SubmittedAt.After(time.Now().Add(time.Minute)) {
		return ValidationErrors{
			ValidationError{
				Field:   "SubmittedAt",
				Message: "submitted_at cannot be in the future",
			},
		}
	}

	return nil
}

func (v *ReservationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "request_token":
			message = fmt.Sprintf("%s must be 8-128 characters of [a-zA-Z0-9._-]", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
