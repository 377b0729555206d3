package ranker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"testing"

	"github.com/vadimtrunov/movierank/internal/core"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeSimilar implements core.SimilarityProvider.
type fakeSimilar struct {
	results map[core.Title][]core.Title
	errs    map[core.Title]error
	calls   []core.Title
	query   core.SimilarQuery
}

func (f *fakeSimilar) FetchSimilar(_ context.Context, title core.Title, opts ...core.SimilarOption) ([]core.Title, error) {
	f.calls = append(f.calls, title)
	f.query = core.NewSimilarQuery(opts...)
	if err := f.errs[title]; err != nil {
		return nil, err
	}
	return f.results[title], nil
}

func (f *fakeSimilar) Name() string { return "fake-similar" }

// fakeMetadata implements core.MetadataProvider.
type fakeMetadata struct {
	records map[core.Title]*core.MetadataRecord
	errs    map[core.Title]error
	calls   []core.Title
	cancel  context.CancelFunc // called on first request when set
}

func (f *fakeMetadata) FetchMetadata(_ context.Context, title core.Title) (*core.MetadataRecord, error) {
	f.calls = append(f.calls, title)
	if f.cancel != nil {
		f.cancel()
	}
	if err := f.errs[title]; err != nil {
		return nil, err
	}
	if rec, ok := f.records[title]; ok {
		return rec, nil
	}
	return nil, &core.LookupError{Title: title, Key: "Ratings"}
}

func (f *fakeMetadata) Name() string { return "fake-metadata" }

func rt(value string) *core.MetadataRecord {
	return &core.MetadataRecord{
		Ratings:    []core.RatingEntry{{Source: "Rotten Tomatoes", Value: value}},
	}
}

func noRT() *core.MetadataRecord {
	return &core.MetadataRecord{
		Ratings:    []core.RatingEntry{{Source: "Internet Movie Database", Value: "7.0/10"}},
	}
}

func TestRank_EmptySeedsMakesNoCalls(t *testing.T) {
	t.Parallel()
	sim := &fakeSimilar{}
	meta := &fakeMetadata{}
	r := New(sim, meta, Options{}, discardLogger)

	res, err := r.Rank(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Titles) != 0 || len(res.Skipped) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
	if len(sim.calls) != 0 || len(meta.calls) != 0 {
		t.Errorf("expected no calls, got similar=%v metadata=%v", sim.calls, meta.calls)
	}
}

func TestRank_Se7en(t *testing.T) {
	t.Parallel()
	sim := &fakeSimilar{results: map[core.Title][]core.Title{
		"Se7en": {"Zodiac", "Fight Club"},
	}}
	meta := &fakeMetadata{records: map[core.Title]*core.MetadataRecord{
		"Zodiac":     rt("65%"),
		"Fight Club": rt("96%"),
	}}
	r := New(sim, meta, Options{}, discardLogger)

	res, err := r.Rank(context.Background(), []core.Title{"Se7en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []core.Title{"Fight Club", "Zodiac"}
	if got := res.TitleNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("TitleNames() = %v, want %v", got, want)
	}
	if res.Titles[0].Rating != 96 || !res.Titles[0].Known {
		t.Errorf("unexpected first entry: %+v", res.Titles[0])
	}
	if sim.query.Type != "movies" || sim.query.Limit != 5 {
		t.Errorf("expected default similarity query, got %+v", sim.query)
	}
}

func TestRank_DeduplicatesAcrossSeeds(t *testing.T) {
	t.Parallel()
	sim := &fakeSimilar{results: map[core.Title][]core.Title{
		"Se7en":  {"Zodiac", "Prisoners"},
		"Zodiac": {"Se7en", "Prisoners", "Memories of Murder"},
	}}
	meta := &fakeMetadata{records: map[core.Title]*core.MetadataRecord{
		"Zodiac":             rt("90%"),
		"Prisoners":          rt("81%"),
		"Se7en":              rt("82%"),
		"Memories of Murder": rt("95%"),
	}}
	r := New(sim, meta, Options{}, discardLogger)

	res, err := r.Rank(context.Background(), []core.Title{"Se7en", "Zodiac"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Seeds echoed back are kept: no self-exclusion.
	want := []core.Title{"Memories of Murder", "Zodiac", "Se7en", "Prisoners"}
	if got := res.TitleNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("TitleNames() = %v, want %v", got, want)
	}
	if len(meta.calls) != 4 {
		t.Errorf("expected one metadata call per unique title, got %v", meta.calls)
	}
}

func TestRank_OutputSetEqualsUnion(t *testing.T) {
	t.Parallel()
	sim := &fakeSimilar{results: map[core.Title][]core.Title{
		"A": {"x", "y"},
		"B": {"y", "z"},
		"C": {},
	}}
	meta := &fakeMetadata{records: map[core.Title]*core.MetadataRecord{
		"x": rt("10%"), "y": noRT(), "z": rt("50%"),
	}}
	r := New(sim, meta, Options{}, discardLogger)

	res, err := r.Rank(context.Background(), []core.Title{"A", "B", "C"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := res.TitleNames()
	slices.Sort(got)
	if want := []core.Title{"x", "y", "z"}; !reflect.DeepEqual(got, want) {
		t.Errorf("output set = %v, want %v", got, want)
	}
}

func TestRank_MissingRatingRanksLast(t *testing.T) {
	t.Parallel()
	sim := &fakeSimilar{results: map[core.Title][]core.Title{
		"Seed": {"Unrated", "Panned", "Loved"},
	}}
	meta := &fakeMetadata{records: map[core.Title]*core.MetadataRecord{
		"Unrated": noRT(),
		"Panned":  rt("0%"),
		"Loved":   rt("100%"),
	}}
	r := New(sim, meta, Options{}, discardLogger)

	res, err := r.Rank(context.Background(), []core.Title{"Seed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []core.RankedTitle{
		{Title: "Loved", Rating: 100, Known: true},
		{Title: "Panned", Rating: 0, Known: true},
		{Title: "Unrated", Rating: 0, Known: false},
	}
	if !reflect.DeepEqual(res.Titles, want) {
		t.Errorf("Titles = %+v, want %+v", res.Titles, want)
	}
}

func TestRank_TiesBrokenByTitle(t *testing.T) {
	t.Parallel()
	sim := &fakeSimilar{results: map[core.Title][]core.Title{
		"Seed": {"Charlie", "Alpha", "Bravo"},
	}}
	meta := &fakeMetadata{records: map[core.Title]*core.MetadataRecord{
		"Charlie": rt("80%"), "Alpha": rt("80%"), "Bravo": rt("80%"),
	}}
	r := New(sim, meta, Options{}, discardLogger)

	res, err := r.Rank(context.Background(), []core.Title{"Seed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []core.Title{"Alpha", "Bravo", "Charlie"}; !reflect.DeepEqual(res.TitleNames(), want) {
		t.Errorf("TitleNames() = %v, want %v", res.TitleNames(), want)
	}
}

func TestRank_Idempotent(t *testing.T) {
	t.Parallel()
	newRanker := func() *Ranker {
		sim := &fakeSimilar{results: map[core.Title][]core.Title{
			"A": {"p", "q", "r", "s"},
			"B": {"s", "t"},
		}}
		meta := &fakeMetadata{records: map[core.Title]*core.MetadataRecord{
			"p": rt("50%"), "q": rt("50%"), "r": noRT(), "s": rt("75%"), "t": rt("50%"),
		}}
		return New(sim, meta, Options{}, discardLogger)
	}

	first, err := newRanker().Rank(context.Background(), []core.Title{"A", "B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := newRanker().Rank(context.Background(), []core.Title{"A", "B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first.TitleNames(), second.TitleNames()) {
		t.Errorf("non-deterministic output: %v vs %v", first.TitleNames(), second.TitleNames())
	}
}

func TestRank_IsolatesSeedFailure(t *testing.T) {
	t.Parallel()
	sim := &fakeSimilar{
		results: map[core.Title][]core.Title{"Good": {"Heat"}},
		errs:    map[core.Title]error{"Bad": &core.LookupError{Title: "Bad", Key: "Similar"}},
	}
	meta := &fakeMetadata{records: map[core.Title]*core.MetadataRecord{"Heat": rt("87%")}}
	r := New(sim, meta, Options{}, discardLogger)

	res, err := r.Rank(context.Background(), []core.Title{"Bad", "Good"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []core.Title{"Heat"}; !reflect.DeepEqual(res.TitleNames(), want) {
		t.Errorf("TitleNames() = %v, want %v", res.TitleNames(), want)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Title != "Bad" || res.Skipped[0].Stage != core.StageSimilar {
		t.Fatalf("unexpected skipped: %+v", res.Skipped)
	}
	if !errors.Is(res.Skipped[0].Err, core.ErrLookup) {
		t.Errorf("expected lookup error, got %v", res.Skipped[0].Err)
	}
	if !res.HasSkipped() {
		t.Error("HasSkipped() should be true")
	}
}

func TestRank_IsolatesTitleFailures(t *testing.T) {
	t.Parallel()
	sim := &fakeSimilar{results: map[core.Title][]core.Title{
		"Seed": {"Unknown", "Broken", "Fine", "Down"},
	}}
	meta := &fakeMetadata{
		records: map[core.Title]*core.MetadataRecord{
			"Broken": rt("N/A"),
			"Fine":   rt("70%"),
		},
		errs: map[core.Title]error{
			"Down": &core.NetworkError{URL: "http://omdb", StatusCode: 503},
		},
	}
	r := New(sim, meta, Options{}, discardLogger)

	res, err := r.Rank(context.Background(), []core.Title{"Seed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []core.Title{"Fine"}; !reflect.DeepEqual(res.TitleNames(), want) {
		t.Errorf("TitleNames() = %v, want %v", res.TitleNames(), want)
	}

	stages := map[core.Title]string{}
	for _, s := range res.Skipped {
		stages[s.Title] = s.Stage
		if s.Reason == "" {
			t.Errorf("skipped %q has no reason", s.Title)
		}
	}
	want := map[core.Title]string{
		"Unknown": core.StageMetadata,
		"Broken":  core.StageRating,
		"Down":    core.StageMetadata,
	}
	if !reflect.DeepEqual(stages, want) {
		t.Errorf("skipped stages = %v, want %v", stages, want)
	}
}

func TestRank_ContextCanceledAborts(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sim := &fakeSimilar{results: map[core.Title][]core.Title{"Seed": {"A", "B"}}}
	meta := &fakeMetadata{
		errs:   map[core.Title]error{"A": context.Canceled},
		cancel: cancel,
	}
	r := New(sim, meta, Options{}, discardLogger)

	_, err := r.Rank(ctx, []core.Title{"Seed"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(meta.calls) != 1 {
		t.Errorf("expected ranking to stop after cancellation, got calls %v", meta.calls)
	}
}

func TestRank_Options(t *testing.T) {
	t.Parallel()
	sim := &fakeSimilar{results: map[core.Title][]core.Title{"Seed": {"a", "b", "c"}}}
	meta := &fakeMetadata{records: map[core.Title]*core.MetadataRecord{
		"a": {Ratings: []core.RatingEntry{{Source: "Metacritic", Value: "40"}}},
		"b": {Ratings: []core.RatingEntry{{Source: "Metacritic", Value: "90"}}},
		"c": {Ratings: []core.RatingEntry{{Source: "Metacritic", Value: "70"}}},
	}}
	r := New(sim, meta, Options{
		Source:       "Metacritic",
		MaxResults:   2,
		SimilarType:  "shows",
		SimilarLimit: 20,
	}, discardLogger)

	res, err := r.Rank(context.Background(), []core.Title{"Seed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []core.Title{"b", "c"}; !reflect.DeepEqual(res.TitleNames(), want) {
		t.Errorf("TitleNames() = %v, want %v", res.TitleNames(), want)
	}
	if sim.query.Type != "shows" || sim.query.Limit != 20 {
		t.Errorf("unexpected similarity query: %+v", sim.query)
	}
	if r.Source() != "Metacritic" {
		t.Errorf("Source() = %q", r.Source())
	}
}

func TestRate(t *testing.T) {
	t.Parallel()
	meta := &fakeMetadata{records: map[core.Title]*core.MetadataRecord{"Heat": rt("87%")}}
	r := New(&fakeSimilar{}, meta, Options{}, discardLogger)

	score, err := r.Rate(context.Background(), "Heat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score.Value != 87 || !score.Known {
		t.Errorf("unexpected score: %+v", score)
	}

	if _, err := r.Rate(context.Background(), "Missing"); !errors.Is(err, core.ErrLookup) {
		t.Errorf("expected lookup error, got %v", err)
	}
}

func TestParseTitles(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want []core.Title
	}{
		{"Se7en", []core.Title{"Se7en"}},
		{"Se7en, Zodiac ,Fight Club", []core.Title{"Se7en", "Zodiac", "Fight Club"}},
		{" , ,", []core.Title{}},
		{"", []core.Title{}},
		{"Black Panther,,Up", []core.Title{"Black Panther", "Up"}},
	}
	for _, tt := range tests {
		if got := ParseTitles(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseTitles(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
