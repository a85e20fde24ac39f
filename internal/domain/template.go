package domain

import (
	"fmt"
	"time"
)

// TemplateDescriptor is a catalog entry describing a reusable document
// template: its metadata, fillable variables, and the embedding of its
// descriptive text used for similarity matching.
type TemplateDescriptor struct {
	ID          string
	Name        string
	Description string
	FilePath    string
	FileType    string
	Variables   []string
	Metadata    map[string]string
	Embedding   []float32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DescriptorText builds the text embedded for similarity matching:
// name, description, and variable names joined together.
func (t *TemplateDescriptor) DescriptorText() string {
	text := t.Name
	if t.Description != "" {
		text += "\n\n" + t.Description
	}
	if len(t.Variables) > 0 {
		text += "\n\nVariables:"
		for _, v := range t.Variables {
			text += " " + v
		}
	}
	return text
}

// ValidateTemplate validates a TemplateDescriptor instance
func ValidateTemplate(t *TemplateDescriptor) error {
	if t == nil {
		return fmt.Errorf("template cannot be nil")
	}

	if t.ID == "" {
		return fmt.Errorf("template ID is required")
	}

	if t.Name == "" {
		return fmt.Errorf("template Name is required")
	}

	for _, v := range t.Variables {
		if !IsValidVariableName(v) {
			return fmt.Errorf("template variable name is invalid: %q", v)
		}
	}

	return nil
}

// IsValidVariableName checks that a variable name is a syntactically valid
// identifier: a letter or underscore followed by letters, digits, or underscores.
func IsValidVariableName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
