// Package sitecfg keeps the live site settings in memory and reads the YAML
// seed used to initialize an empty database.
package sitecfg

import (
	"fmt"
	"maps"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/ironpulse/clubsite/internal/models"
)

// Holder publishes the current settings to concurrent readers. Writers swap
// the whole value; readers never observe a partial update.
type Holder struct {
	cur atomic.Pointer[models.SiteSettings]
}

func NewHolder(initial models.SiteSettings) *Holder {
	h := &Holder{}
	h.Set(initial)
	return h
}

// Current returns a copy of the settings.
func (h *Holder) Current() models.SiteSettings {
	p := h.cur.Load()
	if p == nil {
		return models.SiteSettings{}
	}
	return clone(*p)
}

func (h *Holder) Set(s models.SiteSettings) {
	c := clone(s)
	h.cur.Store(&c)
}

func clone(s models.SiteSettings) models.SiteSettings {
	s.Socials = maps.Clone(s.Socials)
	s.Extra = maps.Clone(s.Extra)
	return s
}

// LoadSeed reads settings from a YAML file. A missing path yields zero settings.
func LoadSeed(path string) (models.SiteSettings, error) {
	var s models.SiteSettings
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read site seed: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse site seed %s: %w", path, err)
	}
	return s, nil
}

func MarshalYAML(s models.SiteSettings) ([]byte, error) {
	return yaml.Marshal(s)
}
