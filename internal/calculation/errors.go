package calculation

import (
	"errors"
	"fmt"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidInput is returned when a request is rejected before any computation
	ErrInvalidInput = errors.New("invalid calculation input")

	// ErrBelowMinimumVacationRate is returned when an employer override is
	// below the legislated minimum for the employee's years of service
	ErrBelowMinimumVacationRate = errors.New("vacation rate below legislated minimum")
)

// InvalidInputError names the offending request field
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// BelowMinimumVacationRateError carries the override and the minimum it failed
type BelowMinimumVacationRateError struct {
	Jurisdiction   domain.Jurisdiction
	YearsOfService int
	Minimum        decimal.Decimal
	Override       decimal.Decimal
}

func (e *BelowMinimumVacationRateError) Error() string {
	return fmt.Sprintf("vacation rate override %s is below the %s minimum %s for %d years of service",
		e.Override.String(), e.Jurisdiction, e.Minimum.Round(6).String(), e.YearsOfService)
}

func (e *BelowMinimumVacationRateError) Unwrap() error {
	return ErrBelowMinimumVacationRate
}

func invalid(field, format string, args ...any) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
