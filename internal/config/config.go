// Package config loads the recipients file and environment settings.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"morning-blessing/internal/domain"
)

type file struct {
	Recipients []recipientEntry `yaml:"recipients"`
}

type recipientEntry struct {
	Name string   `yaml:"name"`
	City cityList `yaml:"city"`
	Desc string   `yaml:"desc"`
}

// cityList accepts either a single scalar city or a weekday-indexed sequence.
type cityList []string

func (c *cityList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*c = []string{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*c = list
		return nil
	default:
		return errors.New("city must be a string or a list of strings")
	}
}

// Recipients holds the configured recipients in file order.
type Recipients struct {
	order  []string
	byName map[string]domain.Recipient
}

// Names returns all recipient names in file order.
func (r *Recipients) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get looks a recipient up by name.
func (r *Recipients) Get(name string) (domain.Recipient, bool) {
	rec, ok := r.byName[name]
	return rec, ok
}

// Len returns the number of configured recipients.
func (r *Recipients) Len() int {
	return len(r.order)
}

// Load reads and validates the recipients file. A list-valued city must have
// exactly seven entries, Monday first.
func Load(path string) (*Recipients, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates recipients YAML.
func Parse(raw []byte) (*Recipients, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("config: parse recipients: %w", err)
	}
	if len(f.Recipients) == 0 {
		return nil, errors.New("config: no recipients defined")
	}

	r := &Recipients{byName: make(map[string]domain.Recipient, len(f.Recipients))}
	for _, e := range f.Recipients {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, errors.New("config: recipient with empty name")
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("config: duplicate recipient %q", name)
		}
		if len(e.City) != 1 && len(e.City) != 7 {
			return nil, fmt.Errorf("config: recipient %q: city list must have exactly 7 weekday entries, got %d", name, len(e.City))
		}
		r.order = append(r.order, name)
		r.byName[name] = domain.Recipient{Name: name, Cities: e.City, Desc: e.Desc}
	}
	return r, nil
}

// LoadDotenv loads a local .env file if one exists.
func LoadDotenv() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "err", err)
	}
}

// Getenv returns the environment value for key, or fallback when unset.
func Getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
