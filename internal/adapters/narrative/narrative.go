// Package narrative serves the static prose of each view from a YAML
// document. The default document is compiled into the binary.
package narrative

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ewilliams-labs/decades/internal/core/domain"
)

//go:embed narrative.yaml
var defaultDocument []byte

type document struct {
	Views    map[string]domain.Narrative `yaml:"views"`
	Glossary []domain.Definition         `yaml:"glossary"`
}

// Provider implements ports.NarrativeProvider.
type Provider struct {
	doc document
}

// Default returns the provider backed by the embedded document.
func Default() (*Provider, error) {
	return Parse(defaultDocument)
}

// Load reads a narrative document from path. An empty path selects the
// embedded document.
func Load(path string) (*Provider, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("narrative: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a narrative document.
func Parse(raw []byte) (*Provider, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("narrative: %w: %v", domain.ErrMalformedInput, err)
	}
	if doc.Views == nil {
		doc.Views = map[string]domain.Narrative{}
	}
	return &Provider{doc: doc}, nil
}

// Narrative returns the text for view. Unknown views get an empty Narrative.
func (p *Provider) Narrative(ctx context.Context, view string) (domain.Narrative, error) {
	if err := ctx.Err(); err != nil {
		return domain.Narrative{}, err
	}
	return p.doc.Views[view], nil
}

// Glossary returns the feature definitions in document order.
func (p *Provider) Glossary(ctx context.Context) ([]domain.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]domain.Definition(nil), p.doc.Glossary...), nil
}
