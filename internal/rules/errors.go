package rules

import (
	"errors"
	"fmt"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfigIntegrity is returned when a rule set cannot be installed because
	// editions overlap, leave gaps, or carry an inconsistent payload.
	ErrConfigIntegrity = errors.New("rule configuration integrity violation")

	// ErrNoApplicableRule is returned when no loaded edition covers a date.
	ErrNoApplicableRule = errors.New("no applicable rule edition")

	// ErrSchema is returned when a rule document fails schema validation or strict decoding.
	ErrSchema = errors.New("rule document schema violation")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigIntegrityError describes why a set of editions was rejected
type ConfigIntegrityError struct {
	Jurisdiction domain.Jurisdiction
	Family       domain.Family
	Reason       string
}

func (e *ConfigIntegrityError) Error() string {
	if e.Jurisdiction == "" && e.Family == "" {
		return fmt.Sprintf("config integrity: %s", e.Reason)
	}
	return fmt.Sprintf("config integrity: %s/%s: %s", e.Jurisdiction, e.Family, e.Reason)
}

func (e *ConfigIntegrityError) Unwrap() error {
	return ErrConfigIntegrity
}

// NoApplicableRuleError reports a resolution miss
type NoApplicableRuleError struct {
	Jurisdiction domain.Jurisdiction
	Family       domain.Family
	Date         domain.Date
}

func (e *NoApplicableRuleError) Error() string {
	return fmt.Sprintf("no %s edition for %s covers %s", e.Family, e.Jurisdiction, e.Date)
}

func (e *NoApplicableRuleError) Unwrap() error {
	return ErrNoApplicableRule
}

// SchemaError reports a document that failed validation, with its origin
type SchemaError struct {
	Path     string
	Document int // zero-based position in a multi-document stream
	Cause    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s (document %d): %v", e.Path, e.Document+1, e.Cause)
}

// Unwrap exposes both the sentinel and the underlying cause
func (e *SchemaError) Unwrap() []error {
	return []error{ErrSchema, e.Cause}
}
