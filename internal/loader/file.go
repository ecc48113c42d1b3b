package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Fixture is a plan fixture loaded from disk.
type Fixture struct {
	Path   string
	Config *Frontmatter
	Source string // plan text with frontmatter stripped
}

// LoadFile reads a .plan fixture, extracting frontmatter when present.
func LoadFile(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}

	res, err := ExtractFrontmatter(string(raw))
	if err != nil {
		return nil, StampFile(err, path)
	}

	cfg := res.Config
	cfg.ApplyDefaults(filepath.Base(path))

	return &Fixture{
		Path:   path,
		Config: cfg,
		Source: res.Plan,
	}, nil
}

// StampFile records path on typed frontmatter errors so messages carry
// context. Other errors pass through unchanged.
func StampFile(err error, path string) error {
	var pe *FrontmatterParseError
	if errors.As(err, &pe) {
		pe.File = path
	}
	var ue *UnknownFieldError
	if errors.As(err, &ue) {
		ue.File = path
	}
	return err
}
