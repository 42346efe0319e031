package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/groundcheck/internal/model"
)

// ErrNoCases is returned when a run has nothing to evaluate
var ErrNoCases = errors.New("no cases to evaluate")

// casesFile accepts both a bare list and a {cases: [...]} document
type casesFile struct {
	Cases []model.Case `json:"cases" yaml:"cases"`
}

// LoadCases reads cases from a YAML or JSON file (by extension, YAML otherwise)
func LoadCases(path string) ([]model.Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}

	var cases []model.Case
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		cases, err = decodeJSONCases(data)
	default:
		cases, err = decodeYAMLCases(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse cases %s: %w", path, err)
	}

	return NormalizeCases(cases)
}

func decodeJSONCases(data []byte) ([]model.Case, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var cases []model.Case
		err := json.Unmarshal(data, &cases)
		return cases, err
	}
	var f casesFile
	err := json.Unmarshal(data, &f)
	return f.Cases, err
}

func decodeYAMLCases(data []byte) ([]model.Case, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	if node.Content[0].Kind == yaml.SequenceNode {
		var cases []model.Case
		err := node.Content[0].Decode(&cases)
		return cases, err
	}
	var f casesFile
	err := node.Content[0].Decode(&f)
	return f.Cases, err
}

// NormalizeCases trims prompts, assigns missing IDs and rejects
// blank prompts or unknown labels.
func NormalizeCases(cases []model.Case) ([]model.Case, error) {
	if len(cases) == 0 {
		return nil, ErrNoCases
	}

	out := make([]model.Case, len(cases))
	for i, c := range cases {
		c.Prompt = strings.TrimSpace(c.Prompt)
		if c.Prompt == "" {
			return nil, fmt.Errorf("case %d: prompt is required", i+1)
		}
		c.Label = model.Label(strings.ToLower(strings.TrimSpace(string(c.Label))))
		if c.Label != "" && !c.Label.Valid() {
			return nil, fmt.Errorf("case %d: unknown label %q (want %q or %q)",
				i+1, c.Label, model.LabelCorrect, model.LabelHallucinated)
		}
		if c.ID == "" {
			c.ID = fmt.Sprintf("case-%d", i+1)
		}
		out[i] = c
	}
	return out, nil
}
