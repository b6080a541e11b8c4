package compare

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// JSONFormatter formats comparison results as JSON
type JSONFormatter struct {
	Pretty bool // If true, format with indentation
}

// Format generates JSON output for comparison results
func (jf *JSONFormatter) Format(compSet *ComparisonSet) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(compSet, "", "  ")
	} else {
		data, err = json.Marshal(compSet)
	}
	if err != nil {
		return "", err
	}

	return string(data) + "\n", nil
}

// YAMLFormatter formats comparison results as YAML, with the same keys as JSON
type YAMLFormatter struct{}

// Format generates YAML output. The set is round-tripped through JSON so
// field names and decimal rendering match the JSON formatter.
func (yf *YAMLFormatter) Format(compSet *ComparisonSet) (string, error) {
	data, err := json.Marshal(compSet)
	if err != nil {
		return "", err
	}
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return "", err
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
