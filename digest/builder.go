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


package digest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/recap/ai"
	"github.com/poiesic/recap/cluster"
	"github.com/poiesic/recap/core"
)

// Config holds the digest assembly bounds.
type Config struct {
	// MaxPerGroup caps the citations listed per section. Default: 6
	MaxPerGroup int

	// OverviewBullets caps the overview section length. Default: 3
	OverviewBullets int

	// MaxChars bounds the rendered document. When exceeded, the
	// lowest-ranked sections are removed whole. Default: 12000
	MaxChars int
}

// DefaultConfig returns the standard digest configuration.
func DefaultConfig() Config {
	return Config{
		MaxPerGroup:     6,
		OverviewBullets: 3,
		MaxChars:        12000,
	}
}

// Validate checks the assembly bounds.
func (c Config) Validate() error {
	if c.MaxPerGroup < 1 {
		return errors.New("digest config: MaxPerGroup must be at least 1")
	}
	if c.OverviewBullets < 1 {
		return errors.New("digest config: OverviewBullets must be at least 1")
	}
	if c.MaxChars < 1 {
		return errors.New("digest config: MaxChars must be positive")
	}
	return nil
}

// Citation references one surviving item backing a section.
type Citation struct {
	Key       core.ItemKey
	Link      string
	Timestamp time.Time
}

// Section is one digest entry bound to a cluster.
type Section struct {
	Title     string
	Statement string
	Citations []Citation

	// ItemCount is the cluster size including collapsed duplicates.
	ItemCount int

	// Synthesized is false when the statement is a fallback excerpt of
	// the representative item because summarization was unavailable.
	Synthesized bool
}

// Document is the assembled digest. It is not mutated after Build
// returns.
type Document struct {
	Date        time.Time
	Overview    []string
	Sections    []Section
	GeneratedAt time.Time

	// Deferred counts sections whose synthesis failed and fell back to
	// an excerpt.
	Deferred int
}

// Builder assembles ranked groups into a size-bounded digest.
type Builder struct {
	config Config
	synth  ai.Synthesizer
	logger *slog.Logger
}

// NewBuilder creates a digest builder using the given synthesizer.
func NewBuilder(config Config, synth ai.Synthesizer) (*Builder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if synth == nil {
		return nil, errors.New("digest: synthesizer is required")
	}
	return &Builder{
		config: config,
		synth:  synth,
		logger: slog.Default().With("component", "digest"),
	}, nil
}

// Build assembles the document for the given ranked groups. Synthesis
// failures degrade the affected section to an excerpt of its
// representative item rather than failing the whole digest. Sections
// whose statements collapse to the same normalized fingerprint are
// suppressed, keeping the higher-ranked copy. The rendered document is
// guaranteed to fit MaxChars; whole sections are dropped from the
// bottom of the ranking until it does.
func (b *Builder) Build(ctx context.Context, groups []*cluster.Group) (*Document, error) {
	now := time.Now().UTC()
	doc := &Document{
		Date:        now,
		GeneratedAt: now,
	}
	if len(groups) == 0 {
		return doc, nil
	}

	seen := make(map[uint64]bool)
	for _, group := range groups {
		section, synthesized := b.buildSection(ctx, group)

		fp := core.Fingerprint(normalizeStatement(section.Statement))
		if seen[fp] {
			b.logger.Debug("suppressed duplicate section", "title", section.Title)
			continue
		}
		seen[fp] = true

		if !synthesized {
			doc.Deferred++
		}
		doc.Sections = append(doc.Sections, section)
	}

	b.refreshOverview(doc)

	// Trim whole sections from the bottom until the render fits.
	for len(doc.Sections) > 0 && len(Render(doc)) > b.config.MaxChars {
		dropped := doc.Sections[len(doc.Sections)-1]
		doc.Sections = doc.Sections[:len(doc.Sections)-1]
		b.refreshOverview(doc)
		b.logger.Warn("trimmed section to fit size bound", "title", dropped.Title)
	}

	b.logger.Info("assembled digest",
		"sections", len(doc.Sections),
		"deferred", doc.Deferred)
	return doc, nil
}

// buildSection produces one section from a group. The second return
// value reports whether the statement came from the synthesizer.
func (b *Builder) buildSection(ctx context.Context, group *cluster.Group) (Section, bool) {
	texts := make([]string, 0, len(group.Members))
	citations := make([]Citation, 0, len(group.Members))
	for i, member := range group.Members {
		if i >= b.config.MaxPerGroup {
			break
		}
		texts = append(texts, member.Item.Text())
		citations = append(citations, Citation{
			Key:       member.Item.Key,
			Link:      member.Item.Link,
			Timestamp: member.Item.Timestamp,
		})
	}

	section := Section{
		Title:     sectionTitle(group.Representative.Item),
		Citations: citations,
		ItemCount: group.Size(),
	}

	statement, err := b.synth.Summarize(ctx, texts)
	if err != nil {
		b.logger.Warn("synthesis failed, using representative excerpt",
			"key", group.Representative.Item.Key.String(), "err", err)
		section.Statement = excerpt(group.Representative.Item.Text(), 240)
		return section, false
	}

	section.Statement = strings.TrimSpace(statement)
	section.Synthesized = true
	return section, true
}

// refreshOverview rebuilds the overview bullets from the current
// top-ranked sections.
func (b *Builder) refreshOverview(doc *Document) {
	doc.Overview = doc.Overview[:0]
	for i, section := range doc.Sections {
		if i >= b.config.OverviewBullets {
			break
		}
		doc.Overview = append(doc.Overview, section.Statement)
	}
}

// sectionTitle derives a short title from the representative item.
func sectionTitle(item *core.Item) string {
	return excerpt(item.Text(), 80)
}

// excerpt returns the first sentence of text, cut at a word boundary if
// it still exceeds limit characters.
func excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if idx := strings.IndexAny(text, ".!?"); idx >= 0 && idx+1 < len(text) {
		text = text[:idx+1]
	}
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "…"
}

// normalizeStatement canonicalizes a statement for exact-duplicate
// detection: lowercased, punctuation stripped, whitespace collapsed.
func normalizeStatement(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(".,!?;:\"'()[]{}", r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
