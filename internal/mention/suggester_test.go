package mention

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/nicway1/truelog-cli/internal/model"
)

type fakeSource struct {
	calls atomic.Int64
	fail  bool
}

func (f *fakeSource) MentionSuggestions(_ context.Context, query string) ([]model.MentionSuggestion, error) {
	f.calls.Add(1)
	if f.fail {
		return nil, errors.New("suggestion backend down")
	}
	return []model.MentionSuggestion{
		{ID: "u1", Name: query + ".doe", DisplayName: "For " + query},
	}, nil
}

func TestFetchTagsResultWithSequence(t *testing.T) {
	src := &fakeSource{}
	s := NewSuggester(src)

	seq := s.Next()
	res, err := s.Fetch(context.Background(), "jo", seq)
	if err != nil {
		t.Fatal(err)
	}
	if res.Seq != seq || res.Query != "jo" {
		t.Errorf("result tagged (%q, %d), want (%q, %d)", res.Query, res.Seq, "jo", seq)
	}
	if len(res.Suggestions) != 1 || res.Suggestions[0].Name != "jo.doe" {
		t.Errorf("unexpected suggestions: %+v", res.Suggestions)
	}
}

func TestStaleSequenceIsDetectable(t *testing.T) {
	s := NewSuggester(&fakeSource{})

	first := s.Next()
	second := s.Next()

	// The caller drops any result whose sequence is no longer current,
	// which is how a slow early response loses to a later keystroke.
	if s.Latest(first) {
		t.Error("superseded sequence must not read as latest")
	}
	if !s.Latest(second) {
		t.Error("most recent sequence must read as latest")
	}
}

func TestFetchServesRepeatsFromCache(t *testing.T) {
	src := &fakeSource{}
	s := NewSuggester(src)

	for i := 0; i < 3; i++ {
		if _, err := s.Fetch(context.Background(), "ann", s.Next()); err != nil {
			t.Fatal(err)
		}
	}

	if got := src.calls.Load(); got != 1 {
		t.Errorf("source hit %d times for one query, want 1", got)
	}
}

func TestFetchDistinctQueriesMissCache(t *testing.T) {
	src := &fakeSource{}
	s := NewSuggester(src)

	for _, q := range []string{"a", "ab", "abc"} {
		if _, err := s.Fetch(context.Background(), q, s.Next()); err != nil {
			t.Fatal(err)
		}
	}

	if got := src.calls.Load(); got != 3 {
		t.Errorf("source hit %d times for three queries, want 3", got)
	}
}

func TestFetchPropagatesSourceError(t *testing.T) {
	s := NewSuggester(&fakeSource{fail: true})

	if _, err := s.Fetch(context.Background(), "jo", s.Next()); err == nil {
		t.Error("expected source error to surface")
	}
}
