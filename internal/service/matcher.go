package service

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// minMatchScore is the relevance floor below which a product is not
	// considered a candidate at all.
	minMatchScore = 3
	// postRefScore outranks any achievable text score so an explicit
	// post reference always wins.
	postRefScore = 1000
)

// Matcher ranks catalog products against free text and post references.
type Matcher struct {
	products core.ProductRepository
	logger   *zap.Logger
}

// NewMatcher creates a new product matcher
func NewMatcher(products core.ProductRepository, logger *zap.Logger) *Matcher {
	return &Matcher{products: products, logger: logger}
}

// Match returns candidate products ranked by relevance, possibly empty.
// A supplied postRef is resolved to its mapped product first and outranks
// text scores; resolution failure degrades to text matching only.
func (m *Matcher) Match(ctx context.Context, businessID, text, postRef string) ([]core.MatchResult, error) {
	catalog, err := m.products.GetActiveByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}

	results := make([]core.MatchResult, 0, 4)
	seen := make(map[string]struct{}, 4)

	if postRef != "" {
		product, err := m.products.GetByMediaRef(ctx, businessID, postRef)
		if err != nil {
			// Degrade to plain text matching rather than aborting.
			m.logger.Warn("post reference lookup failed",
				zap.String("post_ref", postRef), zap.Error(err))
		} else {
			results = append(results, core.MatchResult{Product: product, Score: postRefScore})
			seen[product.ID] = struct{}{}
		}
	}

	queryTokens := tokenize(text)
	if len(queryTokens) > 0 {
		// Catalog arrives in insertion order; SliceStable below keeps
		// that order for equal scores.
		scored := make([]core.MatchResult, 0, len(catalog))
		for _, product := range catalog {
			if _, dup := seen[product.ID]; dup {
				continue
			}
			score := scoreProduct(queryTokens, product)
			if score >= minMatchScore {
				scored = append(scored, core.MatchResult{Product: product, Score: score})
			}
		}
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Score > scored[j].Score
		})
		results = append(results, scored...)
	}

	return results, nil
}

// scoreProduct computes a weighted token-overlap score: name tokens count
// triple, category tokens double, description tokens single. A full query
// substring hit on the name earns a bonus.
func scoreProduct(queryTokens []string, product *core.Product) int {
	nameTokens := toSet(tokenize(product.Name))
	categoryTokens := toSet(tokenize(product.Category))
	descTokens := toSet(tokenize(product.Description))

	score := 0
	for _, token := range queryTokens {
		if _, ok := nameTokens[token]; ok {
			score += 3
			continue
		}
		if _, ok := categoryTokens[token]; ok {
			score += 2
			continue
		}
		if _, ok := descTokens[token]; ok {
			score++
		}
	}

	if strings.Contains(normalize(product.Name), normalize(strings.Join(queryTokens, " "))) && len(queryTokens) > 1 {
		score += 2
	}
	return score
}

// stopwords are high-frequency tokens that carry no product signal.
var stopwords = map[string]struct{}{
	"do": {}, "you": {}, "have": {}, "the": {}, "a": {}, "an": {}, "any": {},
	"is": {}, "are": {}, "i": {}, "want": {}, "to": {}, "of": {}, "in": {},
	"for": {}, "hai": {}, "kya": {}, "ka": {}, "ki": {}, "ke": {}, "me": {},
	"please": {}, "pls": {},
}

// tokenize lowercases, strips diacritics and splits on non-alphanumerics,
// dropping stopwords and single characters.
func tokenize(text string) []string {
	normalized := normalize(text)
	parts := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if len(part) < 2 {
			continue
		}
		if _, stop := stopwords[part]; stop {
			continue
		}
		tokens = append(tokens, singular(part))
	}
	return tokens
}

// singular trims a plural "s" so "shirts" matches "shirt". Applied to both
// query and catalog tokens, so imperfect forms still line up.
func singular(token string) string {
	if len(token) > 3 && strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") {
		return token[:len(token)-1]
	}
	return token
}

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// normalize lowercases and strips combining marks so "Pérez" matches "perez".
func normalize(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	stripped, _, err := transform.String(diacriticStripper, lowered)
	if err != nil {
		return lowered
	}
	return stripped
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}
