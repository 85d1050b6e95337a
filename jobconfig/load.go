package jobconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a job configuration file, mirroring the teacher's
// YAML-backed config loading (sim/config.go consumers) with the same
// wrap-and-return-error style used throughout cmd/ and sim/.
func Load(path string) (*Job, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job config %s: %w", path, err)
	}

	var job Job
	if err := yaml.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("parsing job config %s: %w", path, err)
	}

	if err := Validate(&job); err != nil {
		return nil, err
	}

	return &job, nil
}
