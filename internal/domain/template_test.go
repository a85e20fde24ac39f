package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateDescriptor_DescriptorText(t *testing.T) {
	tmpl := &TemplateDescriptor{
		ID:          "tpl-1",
		Name:        "Invoice",
		Description: "Standard invoice for billing clients",
		Variables:   []string{"client_name", "amount"},
	}

	text := tmpl.DescriptorText()
	assert.Equal(t, "Invoice\n\nStandard invoice for billing clients\n\nVariables: client_name amount", text)
}

func TestTemplateDescriptor_DescriptorText_NameOnly(t *testing.T) {
	tmpl := &TemplateDescriptor{ID: "tpl-1", Name: "Contract"}
	assert.Equal(t, "Contract", tmpl.DescriptorText())
}

func TestValidateTemplate(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    *TemplateDescriptor
		wantErr bool
	}{
		{
			name: "valid",
			tmpl: &TemplateDescriptor{ID: "tpl-1", Name: "Invoice", Variables: []string{"client_name", "_total", "line2"}},
		},
		{
			name: "no variables",
			tmpl: &TemplateDescriptor{ID: "tpl-1", Name: "Invoice"},
		},
		{
			name:    "nil",
			tmpl:    nil,
			wantErr: true,
		},
		{
			name:    "missing id",
			tmpl:    &TemplateDescriptor{Name: "Invoice"},
			wantErr: true,
		},
		{
			name:    "missing name",
			tmpl:    &TemplateDescriptor{ID: "tpl-1"},
			wantErr: true,
		},
		{
			name:    "variable with spaces",
			tmpl:    &TemplateDescriptor{ID: "tpl-1", Name: "Invoice", Variables: []string{"client name"}},
			wantErr: true,
		},
		{
			name:    "variable starting with digit",
			tmpl:    &TemplateDescriptor{ID: "tpl-1", Name: "Invoice", Variables: []string{"2fast"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTemplate(tt.tmpl)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsValidVariableName(t *testing.T) {
	valid := []string{"a", "client_name", "_private", "Total2", "x_1_y"}
	invalid := []string{"", "2x", "has space", "dash-name", "dot.name", "curly{"}

	for _, v := range valid {
		assert.True(t, IsValidVariableName(v), v)
	}
	for _, v := range invalid {
		assert.False(t, IsValidVariableName(v), v)
	}
}
