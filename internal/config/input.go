package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/calculation"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of calculation request files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// requestFile is the list form of a request document
type requestFile struct {
	Requests []domain.CalculationRequest `yaml:"requests" json:"requests"`
}

// LoadFromFile loads calculation requests from a YAML or JSON file. The file
// holds either a single request or a top-level "requests" list. Unknown
// fields are rejected.
func (ip *InputParser) LoadFromFile(filename string) ([]domain.CalculationRequest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var requests []domain.CalculationRequest
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		requests, err = ip.ParseJSON(data)
	default:
		requests, err = ip.ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	if err := ip.ValidateRequests(requests); err != nil {
		return nil, fmt.Errorf("request validation failed: %w", err)
	}
	return requests, nil
}

// ParseYAML decodes a single request or a request list from YAML
func (ip *InputParser) ParseYAML(data []byte) ([]domain.CalculationRequest, error) {
	if isList(data, "requests:") {
		var file requestFile
		if err := decodeYAMLStrict(data, &file); err != nil {
			return nil, err
		}
		return file.Requests, nil
	}
	var req domain.CalculationRequest
	if err := decodeYAMLStrict(data, &req); err != nil {
		return nil, err
	}
	return []domain.CalculationRequest{req}, nil
}

// ParseJSON decodes a single request or a request list from JSON
func (ip *InputParser) ParseJSON(data []byte) ([]domain.CalculationRequest, error) {
	if isList(data, `{"requests"`) {
		var file requestFile
		if err := decodeJSONStrict(data, &file); err != nil {
			return nil, err
		}
		return file.Requests, nil
	}
	var req domain.CalculationRequest
	if err := decodeJSONStrict(data, &req); err != nil {
		return nil, err
	}
	return []domain.CalculationRequest{req}, nil
}

// ValidateRequests applies the engine's input validation to every request so
// a bad file is rejected before anything is calculated
func (ip *InputParser) ValidateRequests(requests []domain.CalculationRequest) error {
	if len(requests) == 0 {
		return fmt.Errorf("at least one request is required")
	}
	for i, req := range requests {
		if err := calculation.ValidateRequest(req); err != nil {
			return fmt.Errorf("request %d (%s): %w", i, req.EmployeeID, err)
		}
	}
	return nil
}

// isList reports whether the document is the "requests" list form. JSON is
// compared with whitespace removed.
func isList(data []byte, prefix string) bool {
	trimmed := bytes.TrimSpace(data)
	if strings.HasPrefix(prefix, "{") {
		compact := bytes.Join(bytes.Fields(trimmed), nil)
		return bytes.HasPrefix(compact, []byte(prefix))
	}
	for _, line := range bytes.Split(trimmed, []byte("\n")) {
		l := bytes.TrimSpace(line)
		if len(l) == 0 || l[0] == '#' || bytes.Equal(l, []byte("---")) {
			continue
		}
		return bytes.HasPrefix(l, []byte(prefix))
	}
	return false
}

func decodeYAMLStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty document")
		}
		return err
	}
	return nil
}

func decodeJSONStrict(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after the request document")
	}
	return nil
}
