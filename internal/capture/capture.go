// Package capture grabs the per-cycle image that annotates each persisted sample.
package capture

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/penwyp/go-sensor-monitor/internal/core/constants"
	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// Capturer produces one artifact per monitor cycle, named after the cycle's
// sequence number and timestamp.
type Capturer interface {
	Capture(ctx context.Context, seq int64, ts time.Time) (string, error)
	// Latest returns the path of the last saved artifact, or "".
	Latest() string
}

// Default output geometry: a portrait phone frame.
const (
	DefaultWidth  = 720
	DefaultHeight = 1280
)

// SnapshotConfig configures a SnapshotCamera.
type SnapshotConfig struct {
	// URL returns a single still image per GET, as IP camera apps expose.
	URL string
	Dir string
	// Rotate turns the frame 90 degrees clockwise before resizing.
	Rotate  bool
	Width   int
	Height  int
	Timeout time.Duration
	Client  *http.Client
}

// SnapshotCamera fetches a still from an HTTP camera and stores it as JPEG.
type SnapshotCamera struct {
	cfg    SnapshotConfig
	client *http.Client

	mu     sync.RWMutex
	latest string
}

// NewSnapshotCamera validates cfg and fills defaults.
func NewSnapshotCamera(cfg SnapshotConfig) (*SnapshotCamera, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: no camera url", model.ErrSideArtifact)
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: no image directory", model.ErrSideArtifact)
	}
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &SnapshotCamera{cfg: cfg, client: client}, nil
}

// FileName returns the artifact name for one cycle. The timestamp is rendered
// in the configured timezone so it matches the persisted log row.
func FileName(seq int64, ts time.Time) string {
	return fmt.Sprintf("%d_%s.jpg", seq, util.GetTimeProvider().Format(ts, constants.ImageTimestampLayout))
}

// Capture grabs one frame and saves it as <dir>/<seq>_<timestamp>.jpg.
func (c *SnapshotCamera) Capture(ctx context.Context, seq int64, ts time.Time) (string, error) {
	img, err := c.fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrSideArtifact, err)
	}

	if c.cfg.Rotate {
		img = imaging.Rotate270(img)
	}
	img = imaging.Resize(img, c.cfg.Width, c.cfg.Height, imaging.Lanczos)

	if err := os.MkdirAll(c.cfg.Dir, 0755); err != nil {
		return "", fmt.Errorf("%w: create %s: %v", model.ErrSideArtifact, c.cfg.Dir, err)
	}
	path := filepath.Join(c.cfg.Dir, FileName(seq, ts))
	if err := imaging.Save(img, path, imaging.JPEGQuality(90)); err != nil {
		return "", fmt.Errorf("%w: save %s: %v", model.ErrSideArtifact, path, err)
	}

	c.mu.Lock()
	c.latest = path
	c.mu.Unlock()
	return path, nil
}

func (c *SnapshotCamera) fetch(ctx context.Context) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera returned %s", resp.Status)
	}
	img, err := imaging.Decode(resp.Body, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

// Latest returns the path of the last saved frame.
func (c *SnapshotCamera) Latest() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}
