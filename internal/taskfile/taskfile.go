// Package taskfile loads YAML task definitions for the run command.
package taskfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pairloop/pairloop/internal/controller"
	"github.com/pairloop/pairloop/internal/models"
)

// File is the YAML task definition accepted by `pairloop run`.
type File struct {
	ID                 string         `yaml:"id"`
	Description        string         `yaml:"description"`
	AcceptanceCriteria []string       `yaml:"acceptance_criteria"`
	Specialty          string         `yaml:"specialty"`
	Context            map[string]any `yaml:"context"`
}

// Load reads and parses a task file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse task file %s: %w", path, err)
	}
	return &f, nil
}

// TaskSpec converts the file into the loop's task model.
func (f *File) TaskSpec() models.TaskSpec {
	return models.TaskSpec{
		ID:                 f.ID,
		Description:        f.Description,
		AcceptanceCriteria: f.AcceptanceCriteria,
		Context:            f.Context,
	}
}

// SpecialtyOrDefault returns the declared specialty, defaulting to code.
func (f *File) SpecialtyOrDefault() controller.Specialty {
	if f.Specialty == "" {
		return controller.SpecialtyCode
	}
	return controller.Specialty(f.Specialty)
}
