package report

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/runnerr0/lookback/internal/activity"
)

// Request is the wire form of a report query.
type Request struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseRequest validates req and builds the Query for owner. Every failure
// wraps activity.ErrInvalidWindow, except a missing owner.
func ParseRequest(owner string, req Request) (Query, error) {
	if strings.TrimSpace(owner) == "" {
		return Query{}, ErrMissingOwner
	}

	if err := validate.Struct(req); err != nil {
		return Query{}, fmt.Errorf("%w: %s", activity.ErrInvalidWindow, formatValidationError(err))
	}

	w, err := activity.ParseWindow(req.Start, req.End)
	if err != nil {
		return Query{}, err
	}

	return Query{Owner: owner, Window: w}, nil
}

func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, e.Field()+" is required")
		default:
			msgs = append(msgs, e.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
