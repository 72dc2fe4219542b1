package services

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"go.uber.org/zap"

	"retroriff/types"
)

// AudioService inspects harvested audio payloads
type AudioService interface {
	ExtractAudioMetadata(name string, data []byte) *types.AudioMetadata
	GetContentType(name string) string
}

// audioService implements the AudioService interface
type audioService struct {
	logger *zap.Logger
}

// NewAudioService creates a new audio service
func NewAudioService(logger *zap.Logger) AudioService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &audioService{logger: logger}
}

// GetContentType returns the appropriate MIME type for an audio file
func (s *audioService) GetContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".flac":
		return "audio/flac"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// ExtractAudioMetadata reads tags from the payload, filling gaps from the entry name
func (s *audioService) ExtractAudioMetadata(name string, data []byte) *types.AudioMetadata {
	meta, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		s.logger.Debug("No audio tags, using name", zap.String("name", name), zap.Error(err))
		return metadataFromName(name)
	}

	metadata := &types.AudioMetadata{
		Title:  meta.Title(),
		Artist: meta.Artist(),
		Album:  meta.Album(),
		Format: strings.ToLower(string(meta.FileType())),
	}
	metadata.TrackNumber, _ = meta.Track()

	if metadata.Title == "" || metadata.Artist == "" {
		fallback := metadataFromName(name)
		if metadata.Title == "" {
			metadata.Title = fallback.Title
		}
		if metadata.Artist == "" {
			metadata.Artist = fallback.Artist
		}
	}
	return metadata
}

// metadataFromName parses "Artist - Title.ext"
func metadataFromName(name string) *types.AudioMetadata {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	metadata := &types.AudioMetadata{Title: stem, Format: strings.TrimPrefix(strings.ToLower(ext), ".")}
	if artist, title, ok := strings.Cut(stem, " - "); ok {
		metadata.Artist = strings.TrimSpace(artist)
		metadata.Title = strings.TrimSpace(title)
	}
	return metadata
}
