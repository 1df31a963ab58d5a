// Package catalog holds the operator-facing copy for each service:
// card title, subtitle and confirmation text. A YAML file can override
// the built-in defaults, in the same spirit as the services file the
// panel's siblings consume.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/switchboard/internal/domain"
)

// Entry is the display copy for one service.
type Entry struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
	Confirm  string `yaml:"confirm"`
	// SetForm is the Italian past participle agreeing with the title
	// ("impostato"/"impostata"/"impostate"), used in confirmations.
	SetForm string `yaml:"set_form"`
}

type Catalog struct {
	entries map[domain.ServiceKey]Entry
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{entries: map[domain.ServiceKey]Entry{
		domain.KeyWebsite: {
			Title:    "Website",
			Subtitle: "Sito pubblico",
			Confirm:  "Simula lo spegnimento del sito pubblico.",
			SetForm:  "impostato",
		},
		domain.KeyAPI: {
			Title:    "API",
			Subtitle: "Endpoint applicativi",
			Confirm:  "Simula lo spegnimento delle API.",
			SetForm:  "impostate",
		},
		domain.KeyDashboard: {
			Title:    "Dashboard",
			Subtitle: "Pannello interno",
			Confirm:  "Simula lo spegnimento della dashboard.",
			SetForm:  "impostata",
		},
		domain.KeyAdmin: {
			Title:    "Admin",
			Subtitle: "Area amministrativa",
			Confirm:  "Simula lo spegnimento dell'area admin.",
			SetForm:  "impostata",
		},
	}}
}

// Load reads a YAML override file and merges it over the defaults.
// Unknown keys in the file are rejected; omitted fields keep their
// default value.
func Load(filePath string) (*Catalog, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var raw map[string]Entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
	}

	c := Default()
	for rawKey, override := range raw {
		key, err := domain.ParseServiceKey(rawKey)
		if err != nil {
			return nil, fmt.Errorf("catalog file: %w", err)
		}
		entry := c.entries[key]
		if override.Title != "" {
			entry.Title = override.Title
		}
		if override.Subtitle != "" {
			entry.Subtitle = override.Subtitle
		}
		if override.Confirm != "" {
			entry.Confirm = override.Confirm
		}
		if override.SetForm != "" {
			entry.SetForm = override.SetForm
		}
		c.entries[key] = entry
	}
	return c, nil
}

// Entry returns the display copy for a key.
func (c *Catalog) Entry(key domain.ServiceKey) Entry {
	return c.entries[key]
}

// Keyed is an Entry paired with its ServiceKey, for rendering.
type Keyed struct {
	Key domain.ServiceKey
	Entry
}

// Entries returns all entries in display order.
func (c *Catalog) Entries() []Keyed {
	keys := domain.AllServiceKeys()
	out := make([]Keyed, 0, len(keys))
	for _, key := range keys {
		out = append(out, Keyed{Key: key, Entry: c.entries[key]})
	}
	return out
}
