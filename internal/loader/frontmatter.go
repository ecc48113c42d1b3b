// Package loader reads plan fixture files with optional YAML
// frontmatter carrying fixture metadata and evaluation datasets.
package loader

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter represents parsed YAML frontmatter of a plan fixture.
// Unknown fields cause parse errors (use Meta for extensions).
type Frontmatter struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Data        map[string][][]int64 `yaml:"data"` // external collection -> rows
	Meta        map[string]any       `yaml:"meta"` // Extension point for custom fields
}

// Result holds the result of frontmatter extraction.
type Result struct {
	Config  *Frontmatter
	Plan    string // plan text after frontmatter
	HasYAML bool   // Whether frontmatter was found
}

// frontmatterPattern matches /*--- ... ---*/ blocks
var frontmatterPattern = regexp.MustCompile(`(?s)^\s*/\*---\s*\n(.*?)\s*---\*/`)

// ExtractFrontmatter extracts YAML frontmatter from fixture content.
// Returns the parsed config, remaining plan text, and any error.
func ExtractFrontmatter(content string) (*Result, error) {
	result := &Result{
		Config:  &Frontmatter{},
		Plan:    content,
		HasYAML: false,
	}

	matches := frontmatterPattern.FindStringSubmatch(content)
	if len(matches) < 2 {
		// No frontmatter found, return content as-is
		return result, nil
	}

	result.HasYAML = true
	yamlContent := matches[1]

	// Remove the frontmatter block from the plan text
	result.Plan = strings.TrimLeft(frontmatterPattern.ReplaceAllString(content, ""), "\r\n")

	config, err := parseFrontmatterYAML(yamlContent)
	if err != nil {
		return nil, err
	}

	result.Config = config
	return result, nil
}

// parseFrontmatterYAML parses YAML content with strict field validation.
func parseFrontmatterYAML(yamlContent string) (*Frontmatter, error) {
	// First, decode into a map to check for unknown fields
	var rawMap map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &rawMap); err != nil {
		return nil, &FrontmatterParseError{
			Message: fmt.Sprintf("invalid YAML: %v", err),
		}
	}

	knownFields := map[string]bool{
		"name":        true,
		"description": true,
		"data":        true,
		"meta":        true,
	}

	for field := range rawMap {
		if !knownFields[field] {
			return nil, &UnknownFieldError{
				Field: field,
			}
		}
	}

	var config Frontmatter
	if err := yaml.Unmarshal([]byte(yamlContent), &config); err != nil {
		return nil, &FrontmatterParseError{
			Message: fmt.Sprintf("failed to parse frontmatter: %v", err),
		}
	}
	return &config, nil
}

// ApplyDefaults applies default values based on file context.
func (c *Frontmatter) ApplyDefaults(filename string) {
	// Default name from filename (without .plan extension)
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filename, ".plan")
	}
}

// FrontmatterParseError represents a frontmatter parsing error.
type FrontmatterParseError struct {
	File    string
	Message string
}

func (e *FrontmatterParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownFieldError represents an error for unknown frontmatter fields.
type UnknownFieldError struct {
	File  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q in frontmatter, use \"meta\" field for custom fields", e.Field)
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}
