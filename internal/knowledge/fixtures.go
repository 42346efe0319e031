package knowledge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFixtures reads a YAML map of title -> summary into a StaticSource.
// Used for offline runs and reproducible evaluations.
//
//	Penicillin: "Penicillins are a group of beta-lactam antibiotics..."
//	Japan: "Japan is an island country in East Asia..."
func LoadFixtures(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}

	var summaries map[string]string
	if err := yaml.Unmarshal(data, &summaries); err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}

	return NewStaticSource("fixtures:"+path, summaries), nil
}
