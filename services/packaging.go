package services

import (
	"encoding/base64"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"retroriff/types"
)

// decodedSizeFactor corrects base64 length to approximate decoded bytes
const decodedSizeFactor = 0.75

// DefaultZipThreshold is the size above which results are offered as an archive
const DefaultZipThreshold int64 = 10 * 1024 * 1024

var unsafeNameChars = regexp.MustCompile(`[\\/?%*:|"<>]`)

// EstimateDecodedSize approximates the binary size of all song payloads
func EstimateDecodedSize(songs []types.Song) float64 {
	total := 0
	for _, s := range songs {
		total += len(s.FileContent)
	}
	return float64(total) * decodedSizeFactor
}

// ChoosePackaging returns archive only when size is strictly above the threshold
func ChoosePackaging(size float64, threshold int64) types.Packaging {
	if size > float64(threshold) {
		return types.PackagingArchive
	}
	return types.PackagingList
}

// ArchiveEntryName is "<artist> - <title>.mp3" with path-unsafe characters replaced
func ArchiveEntryName(song types.Song) string {
	return unsafeNameChars.ReplaceAllString(fmt.Sprintf("%s - %s.mp3", song.Artist, song.Title), "-")
}

// ArchiveFileName is the download name for an archive generated at t
func ArchiveFileName(t time.Time) string {
	return fmt.Sprintf("RetroRiff-Harvester-%d.zip", t.UnixMilli())
}

// WriteArchive writes a zip with one entry per song that has content and
// returns the number of entries written.
func WriteArchive(w io.Writer, songs []types.Song) (int, error) {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	now := time.Now()
	written := 0
	for _, song := range songs {
		if song.FileContent == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(song.FileContent)
		if err != nil {
			zw.Close()
			return written, fmt.Errorf("decode song %d: %w", song.ID, err)
		}

		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     ArchiveEntryName(song),
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			zw.Close()
			return written, fmt.Errorf("create archive entry: %w", err)
		}
		if _, err := entry.Write(data); err != nil {
			zw.Close()
			return written, fmt.Errorf("write archive entry: %w", err)
		}
		written++
	}

	if err := zw.Close(); err != nil {
		return written, fmt.Errorf("finalize archive: %w", err)
	}
	return written, nil
}
