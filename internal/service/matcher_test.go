package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
)

func boutiqueCatalog() *fakeProductRepo {
	return &fakeProductRepo{
		products: []*core.Product{
			{ID: "p1", BusinessID: "b1", Name: "Cotton Shirt", Description: "Lightweight pure cotton shirt", Category: "Shirts", Price: 499, IsActive: true},
			{ID: "p2", BusinessID: "b1", Name: "Linen Shirt", Description: "Breathable linen shirt", Category: "Shirts", Price: 799, IsActive: true},
			{ID: "p3", BusinessID: "b1", Name: "Printed Kurti", Description: "Floral printed rayon kurti", Category: "Kurtis", Price: 649, IsActive: true},
			{ID: "p4", BusinessID: "b1", Name: "Silk Saree", Description: "Banarasi silk saree", Category: "Sarees", Price: 2499, IsActive: true},
		},
		media: map[string]string{"DEMO_saree01": "p4"},
	}
}

func TestMatcher_PluralQueryMatchesName(t *testing.T) {
	m := NewMatcher(boutiqueCatalog(), zap.NewNop())

	matches, err := m.Match(context.Background(), "b1", "do you have cotton shirts?", "")
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	assert.Equal(t, "Cotton Shirt", matches[0].Product.Name)
	assert.Equal(t, 499.0, matches[0].Product.Price)
	// Linen Shirt shares the "shirt" token but cannot outrank the full hit.
	if len(matches) > 1 {
		assert.Greater(t, matches[0].Score, matches[1].Score)
	}
}

func TestMatcher_BelowThresholdReturnsEmpty(t *testing.T) {
	m := NewMatcher(boutiqueCatalog(), zap.NewNop())

	matches, err := m.Match(context.Background(), "b1", "anything nice available?", "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMatcher_PostRefOutranksText(t *testing.T) {
	m := NewMatcher(boutiqueCatalog(), zap.NewNop())

	matches, err := m.Match(context.Background(), "b1", "cotton shirt", "DEMO_saree01")
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	assert.Equal(t, "Silk Saree", matches[0].Product.Name)
	assert.Equal(t, postRefScore, matches[0].Score)
}

func TestMatcher_UnknownPostRefDegradesToText(t *testing.T) {
	m := NewMatcher(boutiqueCatalog(), zap.NewNop())

	matches, err := m.Match(context.Background(), "b1", "cotton shirt", "NOPE")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Cotton Shirt", matches[0].Product.Name)
}

func TestMatcher_StableTieOrder(t *testing.T) {
	repo := &fakeProductRepo{
		products: []*core.Product{
			{ID: "a", BusinessID: "b1", Name: "Blue Kurti", Category: "Kurtis", IsActive: true},
			{ID: "b", BusinessID: "b1", Name: "Red Kurti", Category: "Kurtis", IsActive: true},
		},
	}
	m := NewMatcher(repo, zap.NewNop())

	for i := 0; i < 10; i++ {
		matches, err := m.Match(context.Background(), "b1", "kurti", "")
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "a", matches[0].Product.ID)
		assert.Equal(t, "b", matches[1].Product.ID)
	}
}

func TestMatcher_DiacriticsNormalized(t *testing.T) {
	m := NewMatcher(boutiqueCatalog(), zap.NewNop())

	matches, err := m.Match(context.Background(), "b1", "printed kurtī", "")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Printed Kurti", matches[0].Product.Name)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"cotton", "shirt"}, tokenize("Do you have Cotton Shirts?"))
	assert.Empty(t, tokenize("do you have a"))
	assert.Equal(t, []string{"kurti"}, tokenize("kya kurti hai"))
}
