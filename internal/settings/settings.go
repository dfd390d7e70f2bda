// Package settings stores the user preferences.
package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/khanhkom/engz/internal/models"
	"github.com/khanhkom/engz/internal/storage"
)

const StorageKey = "saladict-settings"

type Store struct {
	kv *storage.Store[models.Settings]
}

func New(kv *storage.Store[models.Settings]) *Store {
	return &Store{kv: kv}
}

func Open(area storage.Area) *Store {
	return New(storage.New(area, StorageKey, models.DefaultSettings(), storage.WithLiveUpdate()))
}

func (s *Store) Close() {
	s.kv.Close()
}

func (s *Store) Get(ctx context.Context) (models.Settings, error) {
	return s.kv.Get(ctx)
}

// Update applies fn to the current settings.
func (s *Store) Update(ctx context.Context, fn func(*models.Settings)) error {
	return s.kv.Update(ctx, func(st models.Settings) (models.Settings, error) {
		fn(&st)
		return st, nil
	})
}

// Set changes one setting by its JSON name, parsing value from text.
func (s *Store) Set(ctx context.Context, name, value string) error {
	var apply func(*models.Settings) error

	switch name {
	case "targetLanguage":
		apply = func(st *models.Settings) error { st.TargetLanguage = value; return nil }
	case "defaultDictionary":
		apply = func(st *models.Settings) error {
			src := models.Source(value)
			if !src.Valid() {
				return fmt.Errorf("unknown dictionary %q", value)
			}
			st.DefaultDictionary = src
			return nil
		}
	case "autoPronunciation", "showFloatingIcon":
		apply = func(st *models.Settings) error {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if name == "autoPronunciation" {
				st.AutoPronunciation = b
			} else {
				st.ShowFloatingIcon = b
			}
			return nil
		}
	case "theme":
		apply = func(st *models.Settings) error {
			switch t := models.Theme(value); t {
			case models.ThemeLight, models.ThemeDark:
				st.Theme = t
				return nil
			}
			return fmt.Errorf("unknown theme %q", value)
		}
	case "panelPosition":
		apply = func(st *models.Settings) error {
			switch p := models.PanelPosition(value); p {
			case models.PanelAuto, models.PanelLeft, models.PanelRight:
				st.PanelPosition = p
				return nil
			}
			return fmt.Errorf("unknown panel position %q", value)
		}
	default:
		return fmt.Errorf("unknown setting %q", name)
	}

	return s.kv.Update(ctx, func(st models.Settings) (models.Settings, error) {
		if err := apply(&st); err != nil {
			return st, err
		}
		return st, nil
	})
}

// Reset restores the defaults.
func (s *Store) Reset(ctx context.Context) error {
	return s.kv.Set(ctx, models.DefaultSettings())
}
