package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultJSONFormatter implements JSON output functionality
type DefaultJSONFormatter struct{}

// NewDefaultJSONFormatter creates a new JSON formatter
func NewDefaultJSONFormatter() *DefaultJSONFormatter {
	return &DefaultJSONFormatter{}
}

// Format returns v as indented JSON
func (f *DefaultJSONFormatter) Format(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// WriteSetupJSON writes the report as indented JSON
func (f *DefaultJSONFormatter) WriteSetupJSON(report SetupReport, path string) error {
	data, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("failed to marshal setup report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
