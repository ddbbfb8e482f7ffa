// Package audio handles voice-note scratch files: transcoding them to MP3 and
// removing them afterwards.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrCleanup marks a failure to remove a scratch file. Callers log it and move on.
var ErrCleanup = errors.New("scratch cleanup failed")

// Transcoder converts an audio file on disk into MP3.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string) error
}

// FFmpeg is a Transcoder backed by the ffmpeg binary.
type FFmpeg struct {
	Path   string
	Logger *slog.Logger
}

var _ Transcoder = (*FFmpeg)(nil)

// Transcode overwrites dst with an MP3 encoding of src.
func (f *FFmpeg) Transcode(ctx context.Context, src, dst string) error {
	bin := f.Path
	if bin == "" {
		bin = "ffmpeg"
	}
	log := f.Logger
	if log == nil {
		log = slog.Default()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, bin, "-y", "-loglevel", "error", "-i", src, "-vn", "-codec:a", "libmp3lame", "-q:a", "4", dst)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg convert failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	log.DebugContext(ctx, "Transcoded audio", "src", src, "dst", dst, "duration", time.Since(start))
	return nil
}

// ScratchPaths returns a fresh pair of distinct source and MP3 paths inside dir.
func ScratchPaths(dir, srcExt string) (src, mp3 string) {
	if srcExt == "" {
		srcExt = ".ogg"
	}
	if strings.EqualFold(srcExt, ".mp3") {
		srcExt = ".in" + srcExt
	}
	name := uuid.NewString()
	return filepath.Join(dir, name+srcExt), filepath.Join(dir, name+".mp3")
}

// RemoveFile deletes path. A file that is already gone is not an error.
func RemoveFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrCleanup, err)
	}
	return nil
}

// SweepStale removes scratch files in dir last modified before now-maxAge and
// returns how many were removed. Only names produced by ScratchPaths are
// considered, so other files sharing dir are left alone. A missing dir is not
// an error.
func SweepStale(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read scratch dir: %w", err)
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsScratchName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := RemoveFile(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	return removed, errors.Join(errs...)
}

// IsScratchName reports whether name has the <uuid>.<ext> shape used by
// ScratchPaths.
func IsScratchName(name string) bool {
	id, ext, ok := strings.Cut(name, ".")
	if !ok || ext == "" || len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
