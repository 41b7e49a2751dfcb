package taxonomy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/models"
)

// memSeeder mimics the slug-keyed upserts of the database.
type memSeeder struct {
	categories map[string]string
	subs       map[string]bool
	rules      map[string]models.MarginRule
}

func newMemSeeder() *memSeeder {
	return &memSeeder{
		categories: map[string]string{},
		subs:       map[string]bool{},
		rules:      map[string]models.MarginRule{},
	}
}

func (m *memSeeder) UpsertCategory(ctx context.Context, c *models.Category) error {
	if id, ok := m.categories[c.Slug]; ok {
		c.ID = id
		return nil
	}
	m.categories[c.Slug] = c.ID
	return nil
}

func (m *memSeeder) UpsertSubcategory(ctx context.Context, sc *models.Subcategory) error {
	m.subs[sc.CategoryID+"/"+sc.Slug] = true
	return nil
}

func (m *memSeeder) EnsureMarginRule(ctx context.Context, r *models.MarginRule) (bool, error) {
	key := ""
	if r.CategoryID != nil {
		key = *r.CategoryID
	}
	if _, ok := m.rules[key]; ok {
		return false, nil
	}
	m.rules[key] = *r
	return true, nil
}

func TestDefault(t *testing.T) {
	doc, err := Default()
	require.NoError(t, err)
	require.NotNil(t, doc.GlobalMargin)
	assert.Equal(t, 15.0, *doc.GlobalMargin)
	assert.NotEmpty(t, doc.Categories)
	assert.Equal(t, "office-supplies", doc.Categories[0].Slug)
}

func TestSeed_Idempotent(t *testing.T) {
	doc, err := Default()
	require.NoError(t, err)
	s := newMemSeeder()

	first, err := Seed(context.Background(), s, doc)
	require.NoError(t, err)
	assert.Equal(t, len(doc.Categories), first.Categories)
	assert.Equal(t, 4, first.MarginRules, "global rule plus three category rules")

	second, err := Seed(context.Background(), s, doc)
	require.NoError(t, err)
	assert.Zero(t, second.MarginRules)
	assert.Len(t, s.categories, len(doc.Categories))
	assert.Equal(t, first.Subcategories, len(s.subs))

	global := s.rules[""]
	assert.Equal(t, "15", global.MarginPercentage.String())
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "categories: []\nextra: 1\n"},
		{"missing slug", "categories:\n  - name: A\n"},
		{"duplicate slug", "categories:\n  - {name: A, slug: a}\n  - {name: B, slug: a}\n"},
		{"negative margin", "categories:\n  - {name: A, slug: a, margin: -1}\n"},
		{"duplicate subcategory", "categories:\n  - name: A\n    slug: a\n    subcategories: [{name: X, slug: x}, {name: Y, slug: x}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}
