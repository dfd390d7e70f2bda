package dictionary

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/khanhkom/engz/internal/models"
	"github.com/segmentio/encoding/json"
)

// GoogleTranslateURL is the public endpoint of the Google engine.
const GoogleTranslateURL = "https://translate.googleapis.com/translate_a/single"

// Google is the Google Translate engine.
type Google struct {
	url  string
	http *http.Client
}

type GoogleOption func(*Google)

func WithGoogleURL(u string) GoogleOption {
	return func(g *Google) { g.url = u }
}

func WithGoogleHTTPClient(c *http.Client) GoogleOption {
	return func(g *Google) { g.http = c }
}

func NewGoogle(opts ...GoogleOption) *Google {
	g := &Google{
		url:  GoogleTranslateURL,
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Google) Name() models.Source {
	return models.SourceGoogle
}

type googleResponse struct {
	Sentences []struct {
		Trans       string `json:"trans"`
		SrcTranslit string `json:"src_translit"`
	} `json:"sentences"`
	Src string `json:"src"`
}

// Fetch translates text into targetLang. The pronunciation is the source
// transliteration when Google returns one.
func (g *Google) Fetch(ctx context.Context, text, targetLang string) (*Result, error) {
	if targetLang == "" {
		targetLang = DefaultTargetLanguage
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", targetLang)
	q.Set("dj", "1")
	q.Set("q", text)
	q.Add("dt", "t")
	q.Add("dt", "bd")
	q.Add("dt", "rm")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("google translate: %w", err)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google translate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google translate: status %d", resp.StatusCode)
	}

	var data googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("google translate: decode: %w", err)
	}

	var trans strings.Builder
	pron := ""
	for _, s := range data.Sentences {
		trans.WriteString(s.Trans)
		if pron == "" && s.SrcTranslit != "" {
			pron = "/" + s.SrcTranslit + "/"
		}
	}
	if trans.Len() == 0 {
		return nil, fmt.Errorf("google translate: %w", ErrNoResult)
	}

	return &Result{
		Word:             text,
		Translation:      trans.String(),
		Pronunciation:    pron,
		Source:           models.SourceGoogle,
		DetectedLanguage: data.Src,
	}, nil
}
