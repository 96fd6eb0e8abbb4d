package validation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/parleychat/authkit/services/logging"
	"go.uber.org/zap"
)

// ErrorMessage maps a field name to the ordered list of human-readable
// rule violations for that field. It is produced only here and safe to
// return verbatim to the caller.
type ErrorMessage map[string][]string

type Service struct {
	validator *validator.Validate
	logger    *logging.Service
}

func NewService(logger *logging.Service) *Service {
	v := validator.New()

	// Report violations under the wire-format field names, not the Go
	// struct field names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	return &Service{
		validator: v,
		logger:    logger,
	}
}

// Validate implements echo.Validator so c.Validate works framework-wide.
func (s *Service) Validate(i any) error {
	if err := s.validator.Struct(i); err != nil {
		var violations validator.ValidationErrors
		if errors.As(err, &violations) {
			return echo.NewHTTPError(http.StatusBadRequest, s.aggregate(violations))
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// aggregate collects every violation, not just the first, keyed by field.
func (s *Service) aggregate(violations validator.ValidationErrors) ErrorMessage {
	message := make(ErrorMessage, len(violations))
	for _, violation := range violations {
		field := violation.Field()
		message[field] = append(message[field], describe(violation))
	}

	if s.logger != nil {
		s.logger.Debug("request body failed validation",
			zap.Int("violation_count", len(violations)))
	}

	return message
}

func describe(violation validator.FieldError) string {
	switch violation.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", violation.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", violation.Param())
	case "eqfield":
		return fmt.Sprintf("must match %s", violation.Param())
	case "alphanum":
		return "must contain only letters and numbers"
	default:
		return fmt.Sprintf("failed the %s rule", violation.Tag())
	}
}

// BindAndValidate parses a structured request body and runs its field
// rules, so the handler never observes a structurally invalid payload.
// A parse failure surfaces as the transport's own binding error; a rule
// failure surfaces as a 400 carrying the aggregated field violations.
func BindAndValidate[T any](c echo.Context, s *Service) (*T, error) {
	value := new(T)
	if err := c.Bind(value); err != nil {
		return nil, err
	}
	if err := s.Validate(value); err != nil {
		return nil, err
	}
	return value, nil
}
