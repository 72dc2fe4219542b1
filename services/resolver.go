package services

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// mockIDLength matches the length of a YouTube video id
const mockIDLength = 11

// ResolvedSong is the lookup result for one catalog entry
type ResolvedSong struct {
	VideoID   string `json:"videoId"`
	Query     string `json:"query"`
	StreamURL string `json:"streamUrl,omitempty"`
}

// SongResolver turns a title/artist pair into a lookup identifier
type SongResolver interface {
	Resolve(ctx context.Context, title, artist string) (ResolvedSong, error)
}

// songQuery is the "artist - title" search string used by every resolver
func songQuery(artist, title string) string {
	return fmt.Sprintf("%s - %s", artist, title)
}

// MockResolver derives a deterministic identifier from the search string
type MockResolver struct {
	logger *zap.Logger
}

// NewMockResolver creates a resolver that never touches the network
func NewMockResolver(logger *zap.Logger) *MockResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockResolver{logger: logger}
}

// Resolve hex-encodes the query and keeps the first eleven characters
func (r *MockResolver) Resolve(_ context.Context, title, artist string) (ResolvedSong, error) {
	query := songQuery(artist, title)
	r.logger.Debug("Resolving song", zap.String("query", query))

	id := hex.EncodeToString([]byte(query))
	if len(id) > mockIDLength {
		id = id[:mockIDLength]
	}
	return ResolvedSong{VideoID: id, Query: query}, nil
}

// searchFunc runs a yt-dlp search and returns its stdout
type searchFunc func(ctx context.Context, target string) (string, error)

// YTDLPResolver finds the best audio stream for a song with yt-dlp
type YTDLPResolver struct {
	limiter *rate.Limiter
	search  searchFunc
	logger  *zap.Logger
}

// NewYTDLPResolver creates a resolver that shells out to the yt-dlp executable.
// Searches are limited to perSecond requests.
func NewYTDLPResolver(executable string, perSecond float64, logger *zap.Logger) *YTDLPResolver {
	return newYTDLPResolver(ytdlpSearch(executable), perSecond, logger)
}

func newYTDLPResolver(search searchFunc, perSecond float64, logger *zap.Logger) *YTDLPResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &YTDLPResolver{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		search:  search,
		logger:  logger,
	}
}

func ytdlpSearch(executable string) searchFunc {
	return func(ctx context.Context, target string) (string, error) {
		dl := ytdlp.New().
			DumpJSON().
			NoPlaylist().
			Format("bestaudio")
		if executable != "" {
			dl = dl.SetExecutable(executable)
		}

		result, err := dl.Run(ctx, target)
		if err != nil {
			return "", err
		}
		return result.Stdout, nil
	}
}

// searchEntry is the subset of yt-dlp's info JSON the resolver needs
type searchEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Resolve searches for "artist - title" and returns the first match
func (r *YTDLPResolver) Resolve(ctx context.Context, title, artist string) (ResolvedSong, error) {
	query := songQuery(artist, title)
	if err := r.limiter.Wait(ctx); err != nil {
		return ResolvedSong{}, fmt.Errorf("search %q: %w", query, err)
	}

	r.logger.Info("Searching YouTube", zap.String("query", query))
	stdout, err := r.search(ctx, "ytsearch1:"+query)
	if err != nil {
		return ResolvedSong{}, fmt.Errorf("search %q: %w", query, err)
	}

	entry, ok := firstSearchEntry(stdout)
	if !ok {
		return ResolvedSong{}, fmt.Errorf("search %q: %w", query, ErrNotFound)
	}
	return ResolvedSong{VideoID: entry.ID, Query: query, StreamURL: entry.URL}, nil
}

// firstSearchEntry returns the first JSON line with an id
func firstSearchEntry(stdout string) (searchEntry, bool) {
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var entry searchEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.ID != "" {
			return entry, true
		}
	}
	return searchEntry{}, false
}
