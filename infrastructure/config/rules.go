package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ideamap/domain/core/valueobjects"
	"ideamap/domain/layout"
	pkgerrors "ideamap/pkg/errors"
)

// LoadRules reads sizing rules from a YAML file. Values in the file are
// applied on top of the default rules, so a file may override a single box.
//
//	boxes:
//	  idea: {width: 260, height: 110}
//	sibling_gap: 48
func LoadRules(path string) (layout.SizingRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return layout.SizingRules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates YAML sizing rules
func ParseRules(data []byte) (layout.SizingRules, error) {
	var override layout.SizingRules
	if err := yaml.Unmarshal(data, &override); err != nil {
		return layout.SizingRules{}, fmt.Errorf("failed to parse rules: %w", err)
	}
	for kind := range override.Boxes {
		switch kind {
		case valueobjects.NodeKindCentral, valueobjects.NodeKindProblem, valueobjects.NodeKindIdea, valueobjects.NodeKindPhase:
		default:
			return layout.SizingRules{}, pkgerrors.NewValidationError(fmt.Sprintf("unknown node kind %q in rules", kind))
		}
	}
	rules := layout.DefaultSizingRules().Merge(override)
	if err := rules.Validate(); err != nil {
		return layout.SizingRules{}, err
	}
	return rules, nil
}
