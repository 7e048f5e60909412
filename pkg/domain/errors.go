package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// NetworkError describes a failed call to the article service
type NetworkError struct {
	Op      string // operation name, e.g. "get articles"
	Status  int    // http status, 0 if the request never got a response
	Message string // server provided message, if any
	Err     error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": network failure"
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RecommendationError is a failed personalized recommendation call.
// It never reaches the user, the caller degrades to random sampling.
type RecommendationError struct {
	Err error
}

func (e *RecommendationError) Error() string { return fmt.Sprintf("recommendation failed: %v", e.Err) }

func (e *RecommendationError) Unwrap() error { return e.Err }

// ValidationError reports invalid input
type ValidationError struct {
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation failed: %v", e.Err)
	}
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags of v and converts failures to ValidationError
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Err: err}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return &ValidationError{Fields: fields, Err: err}
}
