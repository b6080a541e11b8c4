package api

import (
	"time"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
)

// BatchRequest is the body of POST /api/v1/batch
type BatchRequest struct {
	Requests []domain.CalculationRequest `json:"requests"`
	Workers  int                         `json:"workers,omitempty"`
}

// CompareRequest is the body of POST /api/v1/compare
type CompareRequest struct {
	Request  domain.CalculationRequest `json:"request"`
	Variants []string                  `json:"variants"`
}

// EditionDTO describes one loaded rule edition
type EditionDTO struct {
	Jurisdiction  domain.Jurisdiction `json:"jurisdiction"`
	Family        domain.Family       `json:"family"`
	Edition       string              `json:"edition"`
	EffectiveDate domain.Date         `json:"effective_date"`
	ExpiryDate    domain.Date         `json:"expiry_date"`
	Source        string              `json:"source,omitempty"`
	LastUpdated   domain.Date         `json:"last_updated"`
	Payload       any                 `json:"payload,omitempty"`
}

// RulesResponse lists the editions in the live snapshot
type RulesResponse struct {
	LoadedAt time.Time    `json:"loaded_at"`
	Count    int          `json:"count"`
	Editions []EditionDTO `json:"editions"`
}

// HealthResponse is returned by /healthz
type HealthResponse struct {
	Status   string    `json:"status"`
	Editions int       `json:"editions"`
	LoadedAt time.Time `json:"loaded_at"`
}

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Details any    `json:"details,omitempty"`
}

func toEditionDTO(e domain.RuleEdition, withPayload bool) EditionDTO {
	dto := EditionDTO{
		Jurisdiction:  e.Jurisdiction,
		Family:        e.Family,
		Edition:       e.ID,
		EffectiveDate: e.Start,
		ExpiryDate:    e.End,
		Source:        e.Source,
		LastUpdated:   e.LastUpdated,
	}
	if !withPayload {
		return dto
	}
	switch {
	case e.Contributions != nil:
		dto.Payload = e.Contributions
	case e.Tax != nil:
		dto.Payload = e.Tax
	case e.Vacation != nil:
		dto.Payload = e.Vacation
	case e.Holiday != nil:
		dto.Payload = e.Holiday
	}
	return dto
}
