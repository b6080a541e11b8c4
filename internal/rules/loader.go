package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"gopkg.in/yaml.v3"
)

// Loader reads rule documents from YAML files. Every document is checked
// against the CUE schema and then strictly decoded; unknown fields fail in
// both steps.
type Loader struct {
	schema *Schema
	logger *slog.Logger
}

// NewLoader creates a loader with the embedded schema
func NewLoader(logger *slog.Logger) (*Loader, error) {
	schema, err := NewSchema()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{schema: schema, logger: logger}, nil
}

// IsRuleFile reports whether path looks like a rule document file
func IsRuleFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	base := filepath.Base(path)
	return (ext == ".yaml" || ext == ".yml") && !strings.HasPrefix(base, ".")
}

// LoadDir loads every *.yaml / *.yml file below dir in lexical order
func (l *Loader) LoadDir(dir string) ([]domain.RuleEdition, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsRuleFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan rules directory %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no rule documents found in %s", dir)
	}
	sort.Strings(files)

	var editions []domain.RuleEdition
	for _, path := range files {
		loaded, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		editions = append(editions, loaded...)
	}

	l.logger.Debug("Loaded rule documents", "dir", dir, "files", len(files), "editions", len(editions))
	return editions, nil
}

// LoadFile loads all documents in one YAML stream
func (l *Loader) LoadFile(path string) ([]domain.RuleEdition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule file: %w", err)
	}
	defer f.Close()

	return l.ParseDocuments(path, f)
}

// ParseDocuments decodes a YAML stream of rule documents. name is used in errors.
func (l *Loader) ParseDocuments(name string, r io.Reader) ([]domain.RuleEdition, error) {
	dec := yaml.NewDecoder(r)

	var editions []domain.RuleEdition
	for index := 0; ; index++ {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &SchemaError{Path: name, Document: index, Cause: fmt.Errorf("invalid YAML: %w", err)}
		}
		if isEmptyDocument(&node) {
			continue
		}

		edition, err := l.parseDocument(&node)
		if err != nil {
			return nil, &SchemaError{Path: name, Document: index, Cause: err}
		}
		editions = append(editions, edition)
	}
	return editions, nil
}

func (l *Loader) parseDocument(node *yaml.Node) (domain.RuleEdition, error) {
	var generic interface{}
	if err := node.Decode(&generic); err != nil {
		return domain.RuleEdition{}, fmt.Errorf("invalid YAML: %w", err)
	}
	if err := l.schema.Validate(plainScalars(generic)); err != nil {
		return domain.RuleEdition{}, fmt.Errorf("schema: %w", err)
	}

	// yaml.Node.Decode has no strict mode, so re-encode and decode with KnownFields
	raw, err := yaml.Marshal(node)
	if err != nil {
		return domain.RuleEdition{}, fmt.Errorf("re-encode document: %w", err)
	}
	strict := yaml.NewDecoder(bytes.NewReader(raw))
	strict.KnownFields(true)

	var doc domain.RuleDocument
	if err := strict.Decode(&doc); err != nil {
		return domain.RuleEdition{}, fmt.Errorf("decode: %w", err)
	}

	edition, err := doc.Edition()
	if err != nil {
		return domain.RuleEdition{}, fmt.Errorf("%s/%s %s: %w", doc.Metadata.Jurisdiction, doc.Metadata.Family, doc.Metadata.Edition, err)
	}
	return edition, nil
}

// plainScalars turns the time.Time values yaml.v3 produces for unquoted
// dates back into their YYYY-MM-DD text, so the schema sees what was written.
// Timestamps with a time of day keep it and fail the date pattern.
func plainScalars(v interface{}) interface{} {
	switch t := v.(type) {
	case time.Time:
		if t.Equal(t.Truncate(24*time.Hour)) && t.Location() == time.UTC {
			return t.Format(domain.DateLayout)
		}
		return t.Format(time.RFC3339)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = plainScalars(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = plainScalars(val)
		}
		return out
	}
	return v
}

func isEmptyDocument(node *yaml.Node) bool {
	if node.Kind == 0 {
		return true
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return true
		}
		inner := node.Content[0]
		return inner.Kind == yaml.ScalarNode && inner.Tag == "!!null"
	}
	return false
}
