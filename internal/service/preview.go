package service

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	previewTimeout   = 5 * time.Second
	previewReadLimit = 200_000
	previewUserAgent = "Mozilla/5.0"
)

// Preview is a best-effort scrape of a product page's metadata. A page that
// cannot be fetched reports IsAvailable=false; a page without useful meta
// tags just comes back empty.
type Preview struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	ImageURL    *string  `json:"image_url"`
	Price       *float64 `json:"price"`
	Currency    *string  `json:"currency"`
	IsAvailable bool     `json:"is_available"`
}

var previewClient = &http.Client{Timeout: previewTimeout}

// PreviewURL fetches a product page and extracts Open Graph style metadata
// so the owner can prefill an item form. Failures never error out; the
// caller gets an empty or unavailable preview instead.
func (s *Service) PreviewURL(ctx context.Context, rawURL string) (*Preview, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, badRequest("URL is required")
	}
	return fetchPreview(ctx, rawURL), nil
}

func fetchPreview(ctx context.Context, rawURL string) *Preview {
	unavailable := &Preview{IsAvailable: false}
	empty := &Preview{IsAvailable: true}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return unavailable
	}
	req.Header.Set("User-Agent", previewUserAgent)

	resp, err := previewClient.Do(req)
	if err != nil {
		return unavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return unavailable
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return empty
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, previewReadLimit))
	if err != nil && len(raw) == 0 {
		return empty
	}

	byProperty, byName := collectMetaTags(raw)

	preview := &Preview{IsAvailable: true}
	preview.Title = firstMeta(byProperty["og:title"], byName["title"])
	preview.Description = firstMeta(byProperty["og:description"], byName["description"])
	preview.ImageURL = firstMeta(byProperty["og:image"])

	priceStr := firstMeta(byProperty["product:price:amount"], byName["price"], byProperty["og:price:amount"])
	if priceStr != nil {
		if price, err := strconv.ParseFloat(strings.ReplaceAll(*priceStr, ",", "."), 64); err == nil {
			preview.Price = &price
		}
	}
	preview.Currency = firstMeta(byProperty["product:price:currency"], byName["currency"], byProperty["og:price:currency"])

	return preview
}

// collectMetaTags tokenizes the document and gathers <meta> content keyed by
// the property and name attributes, lowercased. The tokenizer never fails on
// broken markup; it just stops.
func collectMetaTags(raw []byte) (byProperty, byName map[string]string) {
	byProperty = make(map[string]string)
	byName = make(map[string]string)

	z := html.NewTokenizer(strings.NewReader(string(raw)))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return byProperty, byName
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if string(name) != "meta" || !hasAttr {
			continue
		}

		var property, metaName, content string
		for {
			key, val, more := z.TagAttr()
			switch strings.ToLower(string(key)) {
			case "property":
				property = strings.ToLower(string(val))
			case "name":
				metaName = strings.ToLower(string(val))
			case "content":
				content = string(val)
			}
			if !more {
				break
			}
		}
		if content == "" {
			continue
		}
		if property != "" {
			byProperty[property] = content
		}
		if metaName != "" {
			byName[metaName] = content
		}
	}
}

// firstMeta returns the first non-empty candidate.
func firstMeta(candidates ...string) *string {
	for _, c := range candidates {
		if c != "" {
			value := c
			return &value
		}
	}
	return nil
}
