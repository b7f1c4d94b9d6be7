// Package seed holds the default campaign waves shipped with the service.
package seed

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed waves.yaml
var defaultWaves []byte

// Wave is one campaign definition in the seed file.
type Wave struct {
	ID             string `yaml:"id" validate:"required,max=50"`
	Name           string `yaml:"name" validate:"required,max=200"`
	Description    string `yaml:"description"`
	Active         bool   `yaml:"active"`
	StartHourLocal int    `yaml:"startHourLocal" validate:"min=0,max=23"`
	EndHourLocal   int    `yaml:"endHourLocal" validate:"min=0,max=23,gtfield=StartHourLocal"`
	Timezone       string `yaml:"timezone" validate:"required,iana_tz"`
}

type file struct {
	Campaigns []Wave `yaml:"campaigns"`
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(data []byte) ([]Wave, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode campaign seed: %w", err)
	}

	seen := make(map[string]bool, len(f.Campaigns))
	for _, w := range f.Campaigns {
		if seen[w.ID] {
			return nil, fmt.Errorf("campaign seed: duplicate id %q", w.ID)
		}
		seen[w.ID] = true
	}
	return f.Campaigns, nil
}

// Default returns the embedded waves.
func Default() ([]Wave, error) {
	return Parse(defaultWaves)
}
