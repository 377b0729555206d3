// Package ranker turns seed titles into a rating-sorted list of related titles.
package ranker

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/vadimtrunov/movierank/internal/core"
	"github.com/vadimtrunov/movierank/internal/rating"
)

// Options tunes a Ranker.
type Options struct {
	Source       string // Rating source, default rating.DefaultSource
	MaxResults   int    // Cap on ranked titles, 0 = unlimited
	SimilarType  string // Similarity category, default core.DefaultSimilarType
	SimilarLimit int    // Results per seed, default core.DefaultSimilarLimit
}

// Result is the outcome of one ranking run.
type Result struct {
	Titles  []core.RankedTitle  `json:"titles"`
	Skipped []core.SkippedTitle `json:"skipped,omitempty"`
}

// TitleNames returns the ranked titles without their ratings.
func (r *Result) TitleNames() []core.Title {
	names := make([]core.Title, len(r.Titles))
	for i, t := range r.Titles {
		names[i] = t.Title
	}
	return names
}

// HasSkipped reports whether any lookup failed during the run.
func (r *Result) HasSkipped() bool { return len(r.Skipped) > 0 }

// Ranker orchestrates the similarity and metadata providers.
// Calls are made sequentially; a Ranker holds no per-run state and may be shared.
type Ranker struct {
	similar   core.SimilarityProvider
	metadata  core.MetadataProvider
	extractor rating.Extractor
	opts      Options
	logger    *slog.Logger
}

// New creates a Ranker.
func New(similar core.SimilarityProvider, metadata core.MetadataProvider, opts Options, logger *slog.Logger) *Ranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{
		similar:   similar,
		metadata:  metadata,
		extractor: rating.NewExtractor(opts.Source),
		opts:      opts,
		logger:    logger,
	}
}

// Source returns the rating source the ranker sorts by.
func (r *Ranker) Source() string { return r.extractor.Source }

// Rank returns the titles related to seeds sorted by rating, highest first.
// A failed lookup for one seed or one related title is recorded in
// Result.Skipped and does not abort the run; only context errors do.
func (r *Ranker) Rank(ctx context.Context, seeds []core.Title) (*Result, error) {
	res := &Result{Titles: []core.RankedTitle{}}
	if len(seeds) == 0 {
		return res, nil
	}

	related, skipped, err := r.RelatedTitles(ctx, seeds)
	if err != nil {
		return nil, err
	}
	res.Skipped = append(res.Skipped, skipped...)

	for _, title := range related {
		score, stage, err := r.rate(ctx, title)
		if err != nil {
			if ctxErr := contextError(ctx); ctxErr != nil {
				return nil, ctxErr
			}
			r.logger.Warn("skipping title",
				slog.String("title", title),
				slog.String("stage", stage),
				slog.String("error", err.Error()),
			)
			res.Skipped = append(res.Skipped, core.NewSkippedTitle(title, stage, err))
			continue
		}
		res.Titles = append(res.Titles, core.RankedTitle{Title: title, Rating: score.Value, Known: score.Known})
	}

	slices.SortStableFunc(res.Titles, compareRanked)
	if r.opts.MaxResults > 0 && len(res.Titles) > r.opts.MaxResults {
		res.Titles = res.Titles[:r.opts.MaxResults]
	}

	r.logger.Info("ranking completed",
		slog.Int("seeds", len(seeds)),
		slog.Int("related", len(related)),
		slog.Int("ranked", len(res.Titles)),
		slog.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

// RelatedTitles returns the deduplicated union of similarity results for
// seeds, in first-seen order. Seeds whose lookup fails are returned as skipped.
func (r *Ranker) RelatedTitles(ctx context.Context, seeds []core.Title) ([]core.Title, []core.SkippedTitle, error) {
	var (
		related []core.Title
		skipped []core.SkippedTitle
		seen    = make(map[core.Title]struct{})
	)

	for _, seed := range seeds {
		titles, err := r.similar.FetchSimilar(ctx, seed, r.similarOptions()...)
		if err != nil {
			if ctxErr := contextError(ctx); ctxErr != nil {
				return nil, nil, ctxErr
			}
			r.logger.Warn("skipping seed",
				slog.String("title", seed),
				slog.String("error", err.Error()),
			)
			skipped = append(skipped, core.NewSkippedTitle(seed, core.StageSimilar, err))
			continue
		}
		for _, t := range titles {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			related = append(related, t)
		}
	}
	return related, skipped, nil
}

// Rate fetches metadata for title and extracts its score.
func (r *Ranker) Rate(ctx context.Context, title core.Title) (rating.Score, error) {
	score, _, err := r.rate(ctx, title)
	return score, err
}

func (r *Ranker) rate(ctx context.Context, title core.Title) (rating.Score, string, error) {
	rec, err := r.metadata.FetchMetadata(ctx, title)
	if err != nil {
		return rating.Score{}, core.StageMetadata, err
	}
	score, err := r.extractor.Extract(rec)
	if err != nil {
		return rating.Score{}, core.StageRating, err
	}
	return score, "", nil
}

func (r *Ranker) similarOptions() []core.SimilarOption {
	return []core.SimilarOption{
		core.WithType(r.opts.SimilarType),
		core.WithLimit(r.opts.SimilarLimit),
	}
}

// compareRanked orders by rating descending, known before unknown, then title.
func compareRanked(a, b core.RankedTitle) int {
	if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
		return c
	}
	if a.Known != b.Known {
		if a.Known {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Title, b.Title)
}

// contextError returns the run's context error once it is canceled. Per-request
// timeouts leave ctx intact and are isolated like any other failure.
func contextError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("ranking aborted: %w", err)
	}
	return nil
}

// ParseTitles splits comma-separated user input into seed titles, trimming
// whitespace and dropping empty entries.
func ParseTitles(input string) []core.Title {
	parts := strings.Split(input, ",")
	titles := make([]core.Title, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			titles = append(titles, t)
		}
	}
	return titles
}
