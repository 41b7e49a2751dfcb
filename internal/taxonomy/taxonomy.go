package taxonomy

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"marketplace/models"
)

//go:embed taxonomy.yaml
var defaultDocument []byte

type Subcategory struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

type Category struct {
	Name          string        `yaml:"name"`
	Slug          string        `yaml:"slug"`
	Description   string        `yaml:"description"`
	Margin        *float64      `yaml:"margin"`
	Subcategories []Subcategory `yaml:"subcategories"`
}

// Document is the catalog taxonomy with its default margin rules.
type Document struct {
	GlobalMargin *float64   `yaml:"global_margin"`
	Categories   []Category `yaml:"categories"`
}

// Seeder stores taxonomy rows. Upserts are keyed by slug, so seeding twice
// changes nothing.
type Seeder interface {
	UpsertCategory(ctx context.Context, c *models.Category) error
	UpsertSubcategory(ctx context.Context, sc *models.Subcategory) error
	EnsureMarginRule(ctx context.Context, r *models.MarginRule) (bool, error)
}

// Default returns the embedded taxonomy.
func Default() (*Document, error) {
	return Parse(defaultDocument)
}

func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate() error {
	seen := make(map[string]bool)
	for i, c := range d.Categories {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Slug) == "" {
			return fmt.Errorf("category %d: name and slug are required", i)
		}
		if seen[c.Slug] {
			return fmt.Errorf("category %q listed twice", c.Slug)
		}
		seen[c.Slug] = true
		if c.Margin != nil && *c.Margin < 0 {
			return fmt.Errorf("category %q: negative margin", c.Slug)
		}
		subs := make(map[string]bool)
		for _, sc := range c.Subcategories {
			if sc.Slug == "" || subs[sc.Slug] {
				return fmt.Errorf("category %q: bad or duplicate subcategory slug %q", c.Slug, sc.Slug)
			}
			subs[sc.Slug] = true
		}
	}
	if d.GlobalMargin != nil && *d.GlobalMargin < 0 {
		return fmt.Errorf("negative global margin")
	}
	return nil
}

type Result struct {
	Categories    int
	Subcategories int
	MarginRules   int
}

// Seed writes the taxonomy through s. Margin rules are only inserted for
// categories that have none yet, so admin edits survive restarts.
func Seed(ctx context.Context, s Seeder, doc *Document) (Result, error) {
	var res Result
	if doc.GlobalMargin != nil {
		added, err := s.EnsureMarginRule(ctx, &models.MarginRule{
			ID:               uuid.NewString(),
			MarginPercentage: decimal.NewFromFloat(*doc.GlobalMargin),
			Active:           true,
		})
		if err != nil {
			return res, err
		}
		if added {
			res.MarginRules++
		}
	}
	for _, c := range doc.Categories {
		cat := &models.Category{
			ID:          uuid.NewString(),
			Name:        c.Name,
			Slug:        c.Slug,
			Description: optional(c.Description),
		}
		if err := s.UpsertCategory(ctx, cat); err != nil {
			return res, fmt.Errorf("category %s: %w", c.Slug, err)
		}
		res.Categories++
		for _, sc := range c.Subcategories {
			sub := &models.Subcategory{
				ID:          uuid.NewString(),
				CategoryID:  cat.ID,
				Name:        sc.Name,
				Slug:        sc.Slug,
				Description: optional(sc.Description),
			}
			if err := s.UpsertSubcategory(ctx, sub); err != nil {
				return res, fmt.Errorf("subcategory %s/%s: %w", c.Slug, sc.Slug, err)
			}
			res.Subcategories++
		}
		if c.Margin == nil {
			continue
		}
		categoryID := cat.ID
		added, err := s.EnsureMarginRule(ctx, &models.MarginRule{
			ID:               uuid.NewString(),
			CategoryID:       &categoryID,
			MarginPercentage: decimal.NewFromFloat(*c.Margin),
			Priority:         10,
			Active:           true,
		})
		if err != nil {
			return res, fmt.Errorf("margin for %s: %w", c.Slug, err)
		}
		if added {
			res.MarginRules++
		}
	}
	return res, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
