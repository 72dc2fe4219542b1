package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const streamChunkSize = 32 * 1024

// AudioConverter turns a resolved song into base64 audio content
type AudioConverter interface {
	Convert(ctx context.Context, song ResolvedSong, title, artist string) (string, error)
}

// PlaceholderConverter synthesizes deterministic stand-in bytes from the metadata
type PlaceholderConverter struct {
	logger *zap.Logger
}

// NewPlaceholderConverter creates an offline converter
func NewPlaceholderConverter(logger *zap.Logger) *PlaceholderConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlaceholderConverter{logger: logger}
}

// Convert returns the placeholder text for the song, base64-encoded
func (c *PlaceholderConverter) Convert(_ context.Context, song ResolvedSong, title, artist string) (string, error) {
	c.logger.Debug("Converting video to audio", zap.String("videoId", song.VideoID))
	text := fmt.Sprintf("This is a mock audio file for \"%s\" by %s. (Video ID: %s)", title, artist, song.VideoID)
	return base64.StdEncoding.EncodeToString([]byte(text)), nil
}

// StreamConverter downloads the resolved audio stream into memory
type StreamConverter struct {
	client   *http.Client
	maxBytes int64
	logger   *zap.Logger
}

// NewStreamConverter creates a converter that fetches StreamURL over HTTP.
// maxBytes <= 0 disables the size cap.
func NewStreamConverter(client *http.Client, maxBytes int64, logger *zap.Logger) *StreamConverter {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamConverter{client: client, maxBytes: maxBytes, logger: logger}
}

// Convert streams the audio, concatenates every chunk and encodes the whole
// payload. Any stream error fails the song.
func (c *StreamConverter) Convert(ctx context.Context, song ResolvedSong, title, artist string) (string, error) {
	if song.StreamURL == "" {
		return "", fmt.Errorf("convert %s: no stream url", song.VideoID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, song.StreamURL, nil)
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", song.VideoID, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", song.VideoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("convert %s: stream returned http %d", song.VideoID, resp.StatusCode)
	}

	chunks, total, err := c.readChunks(resp.Body)
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", song.VideoID, err)
	}

	c.logger.Info("Downloaded audio",
		zap.String("videoId", song.VideoID),
		zap.String("title", title),
		zap.String("artist", artist),
		zap.Int("chunks", len(chunks)),
		zap.Int64("bytes", total))

	return base64.StdEncoding.EncodeToString(bytes.Join(chunks, nil)), nil
}

func (c *StreamConverter) readChunks(body io.Reader) ([][]byte, int64, error) {
	var (
		chunks [][]byte
		total  int64
		buf    = make([]byte, streamChunkSize)
	)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			chunks = append(chunks, chunk)
			total += int64(n)
			if c.maxBytes > 0 && total > c.maxBytes {
				return nil, total, fmt.Errorf("stream exceeds %d bytes", c.maxBytes)
			}
		}
		if errors.Is(err, io.EOF) {
			return chunks, total, nil
		}
		if err != nil {
			return nil, total, fmt.Errorf("read stream: %w", err)
		}
	}
}
