package output

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// JSONFormatter renders the report as JSON. A single-calculation report is
// rendered as the bare result.
type JSONFormatter struct {
	Pretty bool // If true, format with indentation
}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(report *Report) ([]byte, error) {
	var v interface{} = report
	if single := singleResult(report); single != nil {
		v = single
	}

	var data []byte
	var err error
	if j.Pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// YAMLFormatter renders the report as YAML, with the same single-result rule as JSON
type YAMLFormatter struct{}

func (y YAMLFormatter) Name() string { return "yaml" }

func (y YAMLFormatter) Format(report *Report) ([]byte, error) {
	var v interface{} = report
	if single := singleResult(report); single != nil {
		v = single
	}
	return yaml.Marshal(v)
}

func singleResult(report *Report) interface{} {
	if report.RunID == "" && len(report.Items) == 1 && report.Items[0].Result != nil {
		return report.Items[0].Result
	}
	return nil
}
