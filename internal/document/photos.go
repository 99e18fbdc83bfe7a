package document

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/constants"
	"github.com/joseph-ayodele/offer-generator/internal/common"
)

const (
	photoMaxDim   = 1200
	logoMaxDim    = 600
	photoQuality  = 85
	cacheDirPerms = 0o755
)

// PreparedImage is a scaled copy of a source image in the cache directory.
type PreparedImage struct {
	Source string
	Path   string
	Width  int
	Height int
}

// Aspect returns height over width.
func (p PreparedImage) Aspect() float64 {
	if p.Width == 0 {
		return 1
	}
	return float64(p.Height) / float64(p.Width)
}

// ImagePreparer scales photos and logos into a cache so the PDF embeds
// small, correctly oriented files.
type ImagePreparer struct {
	cacheDir string
	logger   *zap.Logger
}

func NewImagePreparer(cacheDir string, logger *zap.Logger) *ImagePreparer {
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "offer-images")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImagePreparer{cacheDir: cacheDir, logger: logger}
}

// PreparePhotos returns the usable photos in input order. A photo that
// cannot be read or scaled is logged and skipped.
func (p *ImagePreparer) PreparePhotos(ctx context.Context, paths []string) []PreparedImage {
	logger := common.LoggerFromContext(ctx, p.logger)
	out := make([]PreparedImage, 0, len(paths))
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		if _, ok := constants.PhotoExtensions[constants.NormalizeExt(filepath.Ext(path))]; !ok {
			logger.Warn("document.photo.skip", zap.String("path", path), zap.String("reason", "unsupported extension"))
			continue
		}
		img, err := p.prepare(path, photoMaxDim, ".jpg")
		if err != nil {
			logger.Warn("document.photo.skip", zap.String("path", path), zap.Error(err))
			continue
		}
		out = append(out, img)
	}
	return out
}

// PrepareLogo scales a logo, keeping PNG so transparency survives.
func (p *ImagePreparer) PrepareLogo(path string) (PreparedImage, error) {
	return p.prepare(path, logoMaxDim, ".png")
}

func (p *ImagePreparer) prepare(path string, maxDim int, ext string) (PreparedImage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return PreparedImage{}, fmt.Errorf("stat %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	key := fmt.Sprintf("%s|%d|%d|%d", abs, info.Size(), info.ModTime().UnixNano(), maxDim)
	dst := filepath.Join(p.cacheDir, uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()+ext)

	if w, h, err := imageSize(dst); err == nil {
		return PreparedImage{Source: path, Path: dst, Width: w, Height: h}, nil
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return PreparedImage{}, fmt.Errorf("decode %s: %w", path, err)
	}
	img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	if err := os.MkdirAll(p.cacheDir, cacheDirPerms); err != nil {
		return PreparedImage{}, fmt.Errorf("create image cache: %w", err)
	}
	if err := imaging.Save(img, dst, imaging.JPEGQuality(photoQuality)); err != nil {
		return PreparedImage{}, fmt.Errorf("write %s: %w", dst, err)
	}
	b := img.Bounds()
	p.logger.Debug("document.image.cached",
		zap.String("source", path), zap.String("path", dst),
		zap.Int("width", b.Dx()), zap.Int("height", b.Dy()))
	return PreparedImage{Source: path, Path: dst, Width: b.Dx(), Height: b.Dy()}, nil
}

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
