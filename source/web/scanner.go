// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package web implements a source connector that scrapes HTML listing
// pages using configurable CSS selectors.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/poiesic/recap/source"
)

const userAgent = "recap/1.0"

// Page describes how to extract items from one listing page.
type Page struct {
	// URL is the listing page address.
	URL string

	// EntrySelector matches one element per item.
	EntrySelector string

	// TextSelector matches the item text within an entry.
	TextSelector string

	// LinkSelector matches the anchor within an entry; its href becomes
	// the item link and, absent an explicit ID, the item identity.
	LinkSelector string

	// TimeSelector matches the element whose datetime attribute or text
	// holds the publication time.
	TimeSelector string

	// TimeFormat is the time.Parse layout for the time text.
	// Ignored when the matched element carries a datetime attribute in
	// RFC 3339 form. Default: RFC 3339.
	TimeFormat string
}

// Scanner is a source.Connector over HTML listing pages. Each source
// identity maps to one configured page.
type Scanner struct {
	client *http.Client
	pages  map[string]Page
	logger *slog.Logger
}

var _ source.Connector = (*Scanner)(nil)

// NewScanner wires an HTTP client over the configured pages. A nil
// client gets a 20 second timeout default.
func NewScanner(client *http.Client, pages map[string]Page) *Scanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Scanner{
		client: client,
		pages:  pages,
		logger: slog.Default().With("component", "web-scanner"),
	}
}

// Fetch retrieves and parses the listing page for the source, returning
// entries published at or after since.
func (s *Scanner) Fetch(ctx context.Context, sourceID string, since time.Time) ([]source.RawItem, error) {
	page, ok := s.pages[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown source %q", source.ErrSourceUnavailable, sourceID)
	}

	doc, err := s.fetchDocument(ctx, page.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrSourceUnavailable, err)
	}

	items := s.extractItems(doc, page, since)
	s.logger.Debug("scanned listing page", "source", sourceID, "items", len(items))
	return items, nil
}

func (s *Scanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func (s *Scanner) extractItems(doc *goquery.Document, page Page, since time.Time) []source.RawItem {
	var items []source.RawItem
	seen := map[string]struct{}{}
	base, _ := url.Parse(page.URL)

	doc.Find(page.EntrySelector).Each(func(i int, entry *goquery.Selection) {
		item, err := parseEntry(entry, page, base)
		if err != nil {
			s.logger.Debug("skipped malformed entry", "index", i, "err", err)
			return
		}
		if item.Timestamp.Before(since) {
			return
		}
		if _, ok := seen[item.ItemID]; ok {
			return
		}
		seen[item.ItemID] = struct{}{}
		items = append(items, item)
	})

	return items
}

func parseEntry(entry *goquery.Selection, page Page, base *url.URL) (source.RawItem, error) {
	text := strings.TrimSpace(entry.Find(page.TextSelector).First().Text())
	if text == "" {
		return source.RawItem{}, fmt.Errorf("entry has no text")
	}

	link := entry.Find(page.LinkSelector).First()
	href, _ := link.Attr("href")
	if href != "" && base != nil && !strings.HasPrefix(href, "http") {
		if resolved, err := base.Parse(href); err == nil {
			href = resolved.String()
		}
	}

	timestamp, err := parseEntryTime(entry, page)
	if err != nil {
		return source.RawItem{}, err
	}

	id := href
	if id == "" {
		id = text
	}

	return source.RawItem{
		ItemID:    id,
		Timestamp: timestamp.UTC(),
		Text:      text,
		Link:      href,
	}, nil
}

func parseEntryTime(entry *goquery.Selection, page Page) (time.Time, error) {
	node := entry.Find(page.TimeSelector).First()
	if dt, ok := node.Attr("datetime"); ok {
		if parsed, err := time.Parse(time.RFC3339, dt); err == nil {
			return parsed, nil
		}
	}

	text := strings.TrimSpace(node.Text())
	if text == "" {
		return time.Time{}, fmt.Errorf("entry has no time")
	}
	layout := page.TimeFormat
	if layout == "" {
		layout = time.RFC3339
	}
	parsed, err := time.Parse(layout, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse entry time: %w", err)
	}
	return parsed, nil
}
