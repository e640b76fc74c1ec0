package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrEmptyMappingFile is returned when a mapping file has no mapping.
var ErrEmptyMappingFile = errors.New("mapping file has no mapping")

// MappingFile persists an edited mapping and its run configuration so a
// non-interactive command can replay it.
type MappingFile struct {
	Mapping       FinalMapping `yaml:"mapping"`
	UltimaCompRef Date         `yaml:"ultima_comp_ref,omitempty"`
	ProjectID     string       `yaml:"project_id,omitempty"`
	BenefID       string       `yaml:"benef_id,omitempty"`
	FichaID       string       `yaml:"ficha_id,omitempty"`
}

// LoadMappingFile reads a mapping file from disk.
func LoadMappingFile(path string) (*MappingFile, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var f MappingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file %s: %w", path, err)
	}
	if len(f.Mapping.Benef) == 0 && len(f.Mapping.Ficha) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyMappingFile, path)
	}
	return &f, nil
}

// Save writes the mapping file, creating parent directories as needed.
func (f *MappingFile) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode mapping file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create mapping directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write mapping file: %w", err)
	}
	return nil
}
