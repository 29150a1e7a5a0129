package mention

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/viccon/sturdyc"

	"github.com/nicway1/truelog-cli/internal/model"
)

// Source is the suggestion endpoint. *api.Client satisfies it.
type Source interface {
	MentionSuggestions(ctx context.Context, query string) ([]model.MentionSuggestion, error)
}

// Suggester fetches mention completions with an in-process TTL cache and
// a monotonic sequence guard. Requests are not cancelled when superseded;
// instead each fetch carries a sequence number and the caller drops any
// result whose sequence is no longer the latest, so a slow response can
// never clobber a newer query's dropdown.
type Suggester struct {
	source Source
	cache  *sturdyc.Client[[]model.MentionSuggestion]
	seq    atomic.Uint64
}

// cache sizing: mention queries are tiny and highly repetitive while the
// user types, so a small shard count and short TTL are plenty.
const (
	cacheCapacity   = 512
	cacheShards     = 8
	cacheTTL        = 30 * time.Second
	evictionPercent = 10
)

// NewSuggester creates a suggester over the given source.
func NewSuggester(source Source) *Suggester {
	return &Suggester{
		source: source,
		cache:  sturdyc.New[[]model.MentionSuggestion](cacheCapacity, cacheShards, cacheTTL, evictionPercent),
	}
}

// Result is a completed suggestion fetch, tagged with its sequence.
type Result struct {
	Query       string
	Seq         uint64
	Suggestions []model.MentionSuggestion
}

// Next registers a new in-flight query and returns its sequence number.
// Call once per keystroke-triggered fetch, before Fetch.
func (s *Suggester) Next() uint64 {
	return s.seq.Add(1)
}

// Latest reports whether seq is still the most recent registered query.
func (s *Suggester) Latest(seq uint64) bool {
	return s.seq.Load() == seq
}

// Fetch retrieves completions for query, serving repeats from the cache.
func (s *Suggester) Fetch(
	ctx context.Context,
	query string,
	seq uint64,
) (Result, error) {
	suggestions, err := s.cache.GetOrFetch(ctx, query,
		func(ctx context.Context) ([]model.MentionSuggestion, error) {
			return s.source.MentionSuggestions(ctx, query)
		},
	)
	if err != nil {
		return Result{}, err
	}
	return Result{Query: query, Seq: seq, Suggestions: suggestions}, nil
}
