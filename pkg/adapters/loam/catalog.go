// Package loam reads saved playback scenarios from a directory of markdown documents.
//
// A scenario is a document whose frontmatter names the producer to connect to:
//
//	---
//	name: Inner planets
//	source: http://localhost:5000
//	transport: http
//	simulation: solar_system
//	description: Mercury to Mars, one year per second
//	---
//	Free-form notes shown by `orrery scenarios show`.
package loam

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario is returned for scenarios that cannot be played.
var ErrInvalidScenario = errors.New("invalid scenario")

// ScenarioMetadata is the frontmatter of a scenario document.
type ScenarioMetadata struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Source      string `json:"source" yaml:"source" mapstructure:"source"`
	Transport   string `json:"transport,omitempty" yaml:"transport,omitempty" mapstructure:"transport"`
	Simulation  string `json:"simulation" yaml:"simulation" mapstructure:"simulation"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
}

// Scenario is a saved way to start a playback session.
type Scenario struct {
	ScenarioMetadata
	Notes string
}

// Validate reports what is missing for the scenario to be playable.
func (s Scenario) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidScenario)
	}
	if s.Simulation == "" {
		return fmt.Errorf("%w: %s has no simulation", ErrInvalidScenario, s.ID)
	}
	return nil
}

// Catalog lists and reads scenarios from a Loam repository.
type Catalog struct {
	Repo  *loam.TypedRepository[ScenarioMetadata]
	store core.Repository
}

// New wraps an initialized repository.
func New(repo core.Repository) *Catalog {
	return &Catalog{
		Repo:  loam.NewTypedRepository[ScenarioMetadata](repo),
		store: repo,
	}
}

// Open initializes a catalog over dir.
func Open(dir string) (*Catalog, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	repo, err := loam.Init(abs, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("open scenario catalog %s: %w", dir, err)
	}
	return New(repo), nil
}

// Get reads one scenario. The id may omit the file extension.
func (c *Catalog) Get(ctx context.Context, id string) (Scenario, error) {
	doc, err := c.Repo.Get(ctx, id)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: %w", id, err)
	}
	return toScenario(doc.ID, doc.Data, doc.Content), nil
}

// List returns every scenario ordered by id.
// Two documents resolving to the same id are an error.
func (c *Catalog) List(ctx context.Context) ([]Scenario, error) {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	out := make([]Scenario, 0, len(docs))
	for _, doc := range docs {
		s := toScenario(doc.ID, doc.Data, doc.Content)
		if existing, ok := seen[s.ID]; ok {
			return nil, fmt.Errorf("collision detected: scenario '%s' is defined in both '%s' and '%s'", s.ID, existing, doc.ID)
		}
		seen[s.ID] = doc.ID
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Save writes s as a markdown document named after its id.
func (c *Catalog) Save(ctx context.Context, s Scenario) error {
	if err := s.Validate(); err != nil {
		return err
	}
	meta := s.ScenarioMetadata
	meta.ID = ""
	header, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode frontmatter: %w", err)
	}
	content := "---\n" + string(header) + "---\n" + s.Notes
	return c.store.Save(ctx, core.Document{ID: s.ID + ".md", Content: content})
}

func toScenario(docID string, meta ScenarioMetadata, content string) Scenario {
	id := meta.ID
	if id == "" {
		id = docID
	}
	meta.ID = trimExtension(id)
	if meta.Name == "" {
		meta.Name = meta.ID
	}
	return Scenario{ScenarioMetadata: meta, Notes: strings.TrimSpace(content)}
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
