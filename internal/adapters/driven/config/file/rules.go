package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/campusgpt/harvester/internal/core/domain"
)

// LoadRules reads a YAML rules file. Tables absent from the file keep
// their value in base.
func LoadRules(path string, base domain.Rules) (domain.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Rules{}, fmt.Errorf("read rules: %w", err)
	}
	rules, err := ParseRules(data, base)
	if err != nil {
		return domain.Rules{}, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// ParseRules decodes YAML rule tables over base.
func ParseRules(data []byte, base domain.Rules) (domain.Rules, error) {
	rules := base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil && !errors.Is(err, io.EOF) {
		return domain.Rules{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return rules, nil
}

// MarshalRules renders rule tables as YAML.
func MarshalRules(rules domain.Rules) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(rules); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
