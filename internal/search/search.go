package search

import (
	"sort"
	"strings"

	"go-moviematch/internal/movie"
)

// MaxResults caps the number of results returned for one query.
const MaxResults = 10

// Result is a search hit as returned to the client. Poster is nil unless the
// record carries an http(s) URL.
type Result struct {
	Title  string  `json:"title"`
	Poster *string `json:"poster"`
}

// Search scores every record by how many query words occur as substrings
// of its lowercase title and plot, and returns the best MaxResults hits.
func Search(c *movie.Catalog, query string) []Result {
	return searchN(c, query, MaxResults)
}

func searchN(c *movie.Catalog, query string, limit int) []Result {
	words := strings.Fields(strings.ToLower(query))
	results := []Result{}
	if len(words) == 0 || c == nil {
		return results
	}

	type scored struct {
		idx   int
		score int
	}
	hits := make([]scored, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if s := Score(words, c.At(i)); s > 0 {
			hits = append(hits, scored{idx: i, score: s})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	for _, h := range hits {
		r := c.At(h.idx)
		results = append(results, Result{Title: r.Title, Poster: posterURL(r.Poster)})
	}
	return results
}

// Score counts the lowercase query words found in the record text, with
// repetition. Matching is substring based, so "cat" matches "category".
func Score(words []string, r movie.Record) int {
	text := strings.ToLower(r.Title + " " + r.Plot)
	score := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			score++
		}
	}
	return score
}

func posterURL(p string) *string {
	if !strings.HasPrefix(p, "http") {
		return nil
	}
	return &p
}

// Searcher binds a catalog and a result limit.
type Searcher struct {
	catalog *movie.Catalog
	limit   int
}

// NewSearcher returns a Searcher over c. Limits outside 1..MaxResults are
// clamped to MaxResults.
func NewSearcher(c *movie.Catalog, limit int) *Searcher {
	if limit < 1 || limit > MaxResults {
		limit = MaxResults
	}
	return &Searcher{catalog: c, limit: limit}
}

func (s *Searcher) Search(query string) []Result {
	return searchN(s.catalog, query, s.limit)
}

