package services

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"retroriff/types"
)

// Harvester sequences prioritization, resolution and conversion for one request
type Harvester struct {
	prioritizer SourcePrioritizer
	resolver    SongResolver
	converter   AudioConverter
	concurrency int
	logger      *zap.Logger
}

// NewHarvester creates an orchestrator. concurrency bounds the number of songs
// resolved and converted at once.
func NewHarvester(p SourcePrioritizer, r SongResolver, c AudioConverter, concurrency int, logger *zap.Logger) *Harvester {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harvester{
		prioritizer: p,
		resolver:    r,
		converter:   c,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ProcessQuery runs a full harvest. A prioritization failure aborts the request;
// per-song failures leave that song's FileContent empty.
func (h *Harvester) ProcessQuery(ctx context.Context, criteria types.SearchCriteria) (*types.HarvesterResult, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	aiResult, err := h.prioritizer.Prioritize(ctx, criteria)
	if err != nil {
		return nil, err
	}
	h.logger.Info("Search plan chosen",
		zap.String("source", aiResult.Source),
		zap.String("searchQuery", aiResult.SearchQuery))

	override := strings.TrimSpace(criteria.Artists)
	songs := Catalog()

	var g errgroup.Group
	g.SetLimit(h.concurrency)
	for i := range songs {
		if override != "" {
			songs[i].Artist = override
		}
		g.Go(func() error {
			songs[i].FileContent = h.harvestSong(ctx, songs[i])
			return nil
		})
	}
	_ = g.Wait()

	slices.SortStableFunc(songs, func(a, b types.Song) int {
		return b.Popularity - a.Popularity
	})

	return &types.HarvesterResult{AIResult: aiResult, Songs: songs}, nil
}

// harvestSong resolves and converts one entry, returning "" on any failure
func (h *Harvester) harvestSong(ctx context.Context, song types.Song) string {
	resolved, err := h.resolver.Resolve(ctx, song.Title, song.Artist)
	if err != nil {
		h.logger.Warn("Song resolution failed",
			zap.Int("id", song.ID),
			zap.String("title", song.Title),
			zap.Error(err))
		return ""
	}

	content, err := h.converter.Convert(ctx, resolved, song.Title, song.Artist)
	if err != nil {
		h.logger.Warn("Audio conversion failed",
			zap.Int("id", song.ID),
			zap.String("title", song.Title),
			zap.String("videoId", resolved.VideoID),
			zap.Error(err))
		return ""
	}
	return content
}
