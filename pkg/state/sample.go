package state

import (
	"math/rand/v2"

	"github.com/umputun/readrec/pkg/domain"
)

// Rand is the random source used for fallback sampling.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Shuffle(n int, swap func(i, j int))
}

// globalRand uses the top-level math/rand/v2 source
type globalRand struct{}

func (globalRand) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// sampleArticles returns a uniformly random subset of up to n articles.
// The input slice is not modified.
func sampleArticles(src Rand, articles []domain.Article, n int) []domain.Article {
	if len(articles) == 0 || n <= 0 {
		return []domain.Article{}
	}
	shuffled := make([]domain.Article, len(articles))
	copy(shuffled, articles)
	src.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:min(n, len(shuffled))]
}

// discoverSet picks the first article of every distinct category, in first-seen order
func discoverSet(articles []domain.Article) []domain.Article {
	seen := make(map[string]bool)
	res := []domain.Article{}
	for _, a := range articles {
		if len(res) >= domain.MaxDiscover {
			break
		}
		if seen[a.Category] {
			continue
		}
		seen[a.Category] = true
		res = append(res, a)
	}
	return res
}

// groupedByCategory takes up to perCategory articles of each category, categories in
// encounter order, and stops at limit
func groupedByCategory(articles []domain.Article, perCategory, limit int) []domain.Article {
	order := []string{}
	groups := map[string][]domain.Article{}
	for _, a := range articles {
		if _, ok := groups[a.Category]; !ok {
			order = append(order, a.Category)
		}
		if len(groups[a.Category]) < perCategory {
			groups[a.Category] = append(groups[a.Category], a)
		}
	}
	res := []domain.Article{}
	for _, c := range order {
		for _, a := range groups[c] {
			if len(res) >= limit {
				return res
			}
			res = append(res, a)
		}
	}
	return res
}
