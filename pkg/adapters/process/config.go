package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProducerConfig describes an external simulation producer the supervisor may launch.
type ProducerConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Dir         string            `yaml:"dir" json:"dir"`
	// Ready is polled until it answers below 500. Empty means ready once started.
	Ready       string `yaml:"ready" json:"ready"`
	Description string `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of producers.yaml.
type ConfigFile struct {
	Producers []ProducerConfig `yaml:"producers" json:"producers"`
}

// LoadProducers reads a configuration file (YAML or JSON by extension) and
// returns the producers keyed by name. A missing file yields no producers.
func LoadProducers(path string) (map[string]ProducerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]ProducerConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read producers config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	producers := make(map[string]ProducerConfig)
	for _, p := range cfg.Producers {
		if p.Name == "" || p.Command == "" {
			continue
		}
		producers[p.Name] = p
	}
	return producers, nil
}
