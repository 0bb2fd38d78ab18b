// Package dataset generates and loads the synthetic Book graph the default
// benchmark suite runs against.
package dataset

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Book is one :Book node.
type Book struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	PublicationYear *int   `json:"publication_year,omitempty"`
	Format          string `json:"format"`
	IsEbook         bool   `json:"is_ebook"`
	LanguageCode    string `json:"language_code"`
	PageCount       int    `json:"page_count"`
}

// Properties returns the node properties as driver parameters. A missing
// publication year is left out so the property stays NULL.
func (b Book) Properties() map[string]any {
	props := map[string]any{
		"id":            b.ID,
		"title":         b.Title,
		"format":        b.Format,
		"is_ebook":      b.IsEbook,
		"language_code": b.LanguageCode,
		"page_count":    int64(b.PageCount),
	}
	if b.PublicationYear != nil {
		props["publication_year"] = int64(*b.PublicationYear)
	}
	return props
}

// Generator produces deterministic books for a given seed.
type Generator struct {
	cfg       Config
	rand      *rand.Rand
	fragments titleFragments
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumBooks <= 0 {
		cfg.NumBooks = def.NumBooks
	}
	if cfg.EbookChance < 0 {
		cfg.EbookChance = def.EbookChance
	}
	if cfg.MissingYearChance < 0 {
		cfg.MissingYearChance = def.MissingYearChance
	}
	if cfg.LongBookChance < 0 {
		cfg.LongBookChance = def.LongBookChance
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:       cfg,
		rand:      rand.New(rand.NewSource(cfg.Seed)),
		fragments: defaultTitleFragments(),
	}
}

// Generate synthesises the configured number of books. It respects context
// cancellation.
func (g *Generator) Generate(ctx context.Context) ([]Book, error) {
	books := make([]Book, g.cfg.NumBooks)
	for i := range books {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		format := g.randomFormat()
		book := Book{
			ID:           fmt.Sprintf("BOOK-%07d", i+1),
			Title:        g.randomTitle(),
			Format:       format,
			IsEbook:      format == "Ebook" || g.rand.Float64() < g.cfg.EbookChance,
			LanguageCode: g.randomLanguage(),
			PageCount:    g.randomPageCount(),
		}
		if g.rand.Float64() >= g.cfg.MissingYearChance {
			year := 1950 + g.rand.Intn(75)
			book.PublicationYear = &year
		}
		books[i] = book
	}
	return books, nil
}

func (g *Generator) randomTitle() string {
	f := g.fragments
	switch g.rand.Intn(3) {
	case 0:
		return fmt.Sprintf("%s %s", pick(g.rand, f.adjectives), pick(g.rand, f.subjects))
	case 1:
		return fmt.Sprintf("%s %s: %s", pick(g.rand, f.adjectives), pick(g.rand, f.subjects), pick(g.rand, f.subtitles))
	default:
		return fmt.Sprintf("The %s of %s", pick(g.rand, f.nouns), pick(g.rand, f.subjects))
	}
}

func (g *Generator) randomFormat() string {
	return pick(g.rand, []string{"Paperback", "Hardcover", "Ebook", "Audiobook", "Mass Market Paperback"})
}

func (g *Generator) randomLanguage() string {
	// weighted towards English so the composite index has a dominant prefix
	if g.rand.Float64() < 0.6 {
		return "en"
	}
	return pick(g.rand, []string{"en-US", "en-GB", "fr", "de", "es", "ja", "pt"})
}

func (g *Generator) randomPageCount() int {
	if g.rand.Float64() < g.cfg.LongBookChance {
		return 10001 + g.rand.Intn(5000)
	}
	return 40 + g.rand.Intn(1200)
}

func pick(r *rand.Rand, options []string) string {
	return options[r.Intn(len(options))]
}

type titleFragments struct {
	adjectives []string
	subjects   []string
	subtitles  []string
	nouns      []string
}

func defaultTitleFragments() titleFragments {
	return titleFragments{
		adjectives: []string{"Practical", "Modern", "Effective", "Advanced", "Beginning", "Fluent", "Essential", "Hands-On", "Learning", "Mastering"},
		subjects:   []string{"Python Programming", "Graph Databases", "Go", "Distributed Systems", "Cypher", "Machine Learning", "Data Structures", "Rust", "Compilers", "Networking"},
		subtitles:  []string{"A Field Guide", "Patterns and Practice", "From Zero to Production", "Second Edition", "The Definitive Guide"},
		nouns:      []string{"Art", "Craft", "Philosophy", "History", "Science", "Pragmatics"},
	}
}
