package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"gatebot/internal/structures"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

var (
	ErrNoOutput = errors.New("fetcher produced no file")
	ErrTooLarge = errors.New("file exceeds size cap")
)

const stderrTail = 512

type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// info is the subset of the yt-dlp JSON document the bot reads.
type info struct {
	Title        string  `json:"title"`
	Uploader     string  `json:"uploader"`
	Duration     float64 `json:"duration"`
	ExtractorKey string  `json:"extractor_key"`
	Extractor    string  `json:"extractor"`
}

// YtDlpFetcher implements interfaces.MediaFetcherInterface by running the
// configured yt-dlp binary.
type YtDlpFetcher struct {
	binary  string
	dir     string
	timeout time.Duration
	logger  providers.Logger
	run     runner
	newID   func() string
}

func NewYtDlpFetcher(conf *structures.Config, logger providers.Logger) *YtDlpFetcher {
	return &YtDlpFetcher{
		binary:  conf.Downloads.FetcherBinary,
		dir:     conf.Downloads.Dir,
		timeout: conf.Downloads.FetchTimeout,
		logger:  logger,
		run:     execRunner,
		newID:   uuid.NewString,
	}
}

func (f *YtDlpFetcher) Probe(ctx context.Context, url string) (models.MediaInfo, error) {
	out, err := f.exec(ctx, probeArgs(url))
	if err != nil {
		f.logger.Warnf(providers.TypeBot, "Probe failed for %s: %s", url, err)
		return models.MediaInfo{}, err
	}
	meta, err := parseInfo(out)
	if err != nil {
		return models.MediaInfo{}, err
	}
	return meta.mediaInfo(), nil
}

// Fetch downloads url into the downloads directory under a fresh
// "video_<uuid>" name. A result larger than capBytes is removed.
func (f *YtDlpFetcher) Fetch(ctx context.Context, url string, capBytes int64) (models.Artifact, error) {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return models.Artifact{}, err
	}
	base := "video_" + f.newID()
	template := filepath.Join(f.dir, base+".%(ext)s")

	out, err := f.exec(ctx, fetchArgs(url, template, capBytes))
	if err != nil {
		f.removeMatches(base)
		return models.Artifact{}, err
	}

	path, err := f.locate(base)
	if err != nil {
		return models.Artifact{}, err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return models.Artifact{}, err
	}
	if capBytes > 0 && stat.Size() > capBytes {
		_ = os.Remove(path)
		return models.Artifact{}, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, stat.Size(), capBytes)
	}

	artifact := models.Artifact{Path: path, SizeBytes: stat.Size()}
	if meta, err := parseInfo(out); err == nil {
		mi := meta.mediaInfo()
		artifact.Title = mi.Title
		artifact.Platform = mi.Platform
		artifact.DurationSeconds = mi.DurationSeconds
	}
	f.logger.Infof(providers.TypeBot, "Fetched %s into %s (%d bytes)", url, path, stat.Size())
	return artifact, nil
}

func (f *YtDlpFetcher) exec(ctx context.Context, args []string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	return f.run(ctx, f.binary, args...)
}

func (f *YtDlpFetcher) locate(base string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(f.dir, base+".*"))
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		// partial downloads
		if strings.HasSuffix(m, ".part") || strings.HasSuffix(m, ".ytdl") {
			_ = os.Remove(m)
			continue
		}
		return m, nil
	}
	return "", ErrNoOutput
}

func (f *YtDlpFetcher) removeMatches(base string) {
	matches, _ := filepath.Glob(filepath.Join(f.dir, base+".*"))
	for _, m := range matches {
		_ = os.Remove(m)
	}
}

func probeArgs(url string) []string {
	return []string{"--dump-json", "--skip-download", "--no-playlist", "--no-warnings", url}
}

func fetchArgs(url, template string, capBytes int64) []string {
	args := []string{"--dump-json", "--no-simulate", "--no-playlist", "--no-warnings", "--no-progress", "-o", template}
	if capBytes > 0 {
		limit := strconv.FormatInt(capBytes, 10)
		args = append(args,
			"--max-filesize", limit,
			"-f", fmt.Sprintf("best[filesize<%s]/best[filesize_approx<%s]/worst", limit, limit),
		)
	}
	return append(args, url)
}

// parseInfo reads the first JSON document in out. yt-dlp prints one line
// per entry.
func parseInfo(out []byte) (info, error) {
	line := bytes.TrimSpace(out)
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	var meta info
	if err := json.Unmarshal(line, &meta); err != nil {
		return info{}, fmt.Errorf("decode fetcher output: %w", err)
	}
	return meta, nil
}

func (i info) mediaInfo() models.MediaInfo {
	platform := i.ExtractorKey
	if platform == "" {
		platform = i.Extractor
	}
	return models.MediaInfo{
		Title:           i.Title,
		Uploader:        i.Uploader,
		DurationSeconds: int(i.Duration),
		Platform:        platform,
	}
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", name, ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > stderrTail {
			msg = msg[len(msg)-stderrTail:]
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return stdout.Bytes(), nil
}
