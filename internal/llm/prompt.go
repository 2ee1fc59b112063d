package llm

import (
	"fmt"
	"strings"
)

// PromptTemplate is one record of the prompt-template table: an instruction
// text with {placeholder} variables that are substituted at execution time.
// Templates regularly embed literal JSON examples, so substitution replaces
// only the provided variables and leaves every other brace untouched.
type PromptTemplate struct {
	ID          string `yaml:"id" json:"id" mapstructure:"id"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" mapstructure:"description"`
	System      string `yaml:"system,omitempty" json:"system,omitempty" mapstructure:"system"`
	Text        string `yaml:"text" json:"text" mapstructure:"text"`
}

// Validate checks that the template has an id and a body.
func (t *PromptTemplate) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("prompt template must have an id")
	}
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("prompt template %q has no text", t.ID)
	}
	return nil
}

// Render substitutes {name} placeholders in the template text with the
// given variable values and returns the rendered prompt.
func (t *PromptTemplate) Render(vars map[string]string) string {
	rendered := t.Text
	for name, value := range vars {
		rendered = strings.ReplaceAll(rendered, "{"+name+"}", value)
	}
	return rendered
}
