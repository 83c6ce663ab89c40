package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"finquest/internal/core"
)

// taxonomyFile is the YAML layout of TAXONOMY_FILE:
//
//	fallback: other
//	categories:
//	  - name: food
//	    merchants: [Starbucks, KFC]
//	    keywords: [food]
type taxonomyFile struct {
	Fallback   string `yaml:"fallback"`
	Categories []struct {
		Name      string   `yaml:"name"`
		Merchants []string `yaml:"merchants"`
		Keywords  []string `yaml:"keywords"`
	} `yaml:"categories"`
}

// LoadTaxonomy returns the taxonomy named by TaxonomyFile, or the built-in
// one when no file is configured.
func (c *Config) LoadTaxonomy() (core.Taxonomy, error) {
	if c.TaxonomyFile == "" {
		return core.DefaultTaxonomy(), nil
	}
	data, err := os.ReadFile(c.TaxonomyFile)
	if err != nil {
		return core.Taxonomy{}, fmt.Errorf("read taxonomy file: %w", err)
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy decodes and validates a YAML taxonomy. Rule order is kept:
// it decides which category wins when several keywords match.
func ParseTaxonomy(data []byte) (core.Taxonomy, error) {
	var f taxonomyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return core.Taxonomy{}, fmt.Errorf("parse taxonomy: %w", err)
	}
	tax := core.Taxonomy{Fallback: f.Fallback}
	if tax.Fallback == "" {
		tax.Fallback = core.CategoryOther
	}
	for _, c := range f.Categories {
		tax.Rules = append(tax.Rules, core.CategoryRule{
			Name:      c.Name,
			Merchants: c.Merchants,
			Keywords:  c.Keywords,
		})
	}
	if err := tax.Validate(); err != nil {
		return core.Taxonomy{}, fmt.Errorf("invalid taxonomy: %w", err)
	}
	return tax, nil
}
