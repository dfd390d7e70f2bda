// Package dictionary looks words up in several dictionary engines at once.
package dictionary

import (
	"context"
	"errors"
	"sync"

	"github.com/khanhkom/engz/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultTargetLanguage is used when a lookup names no target language.
const DefaultTargetLanguage = "vi"

// ErrNoResult is returned by an engine that answered without a translation.
var ErrNoResult = errors.New("no translation found")

// Result is one engine's answer for a word.
type Result struct {
	Word             string        `json:"word"`
	Pronunciation    string        `json:"pronunciation,omitempty"`
	Translation      string        `json:"translation,omitempty"`
	Definition       string        `json:"definition,omitempty"`
	Examples         []string      `json:"examples,omitempty"`
	Source           models.Source `json:"source"`
	DetectedLanguage string        `json:"detectedLanguage,omitempty"`
}

// Engine is a dictionary or translation provider.
type Engine interface {
	Name() models.Source
	Fetch(ctx context.Context, text, targetLang string) (*Result, error)
}

// Lookup holds the settled outcome of FetchAll: every engine appears in
// exactly one of the maps.
type Lookup struct {
	Results map[models.Source]*Result `json:"results"`
	Errors  map[models.Source]string  `json:"errors"`
}

// FetchAll queries all engines in parallel and waits for every one of them.
// A failing engine does not affect the others.
func FetchAll(ctx context.Context, engines []Engine, text, targetLang string) Lookup {
	if targetLang == "" {
		targetLang = DefaultTargetLanguage
	}

	out := Lookup{
		Results: make(map[models.Source]*Result),
		Errors:  make(map[models.Source]string),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, e := range engines {
		g.Go(func() error {
			res, err := e.Fetch(ctx, text, targetLang)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				out.Errors[e.Name()] = err.Error()
			case res == nil:
				out.Errors[e.Name()] = ErrNoResult.Error()
			default:
				out.Results[e.Name()] = res
			}
			return nil
		})
	}
	_ = g.Wait()

	return out
}
