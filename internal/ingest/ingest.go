package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/constants"
	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/pipeline"
)

const maxInboxFileBytes = 1 << 20

// FileResult is the per-file outcome.
type FileResult struct {
	Path         string
	HashHex      string
	Deduplicated bool
	OfferNumber  string
	NetTotal     float64
	DocumentPath string
	Code         string
	Err          string
}

// DirStats summarizes a directory run.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Generator is the pipeline entry point the ingestor drives.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// ResultHook observes every generation attempt, e.g. to persist it.
type ResultHook func(ctx context.Context, path string, res *pipeline.Result, err error)

// Ingestor turns inbox text files into offers, one file at a time.
// Files whose content was already processed in this run are skipped.
type Ingestor struct {
	gen         Generator
	accessories []string
	onResult    ResultHook
	logger      *zap.Logger

	mu   sync.Mutex
	seen map[string]string // content hash -> first path
}

func NewIngestor(gen Generator, accessories []string, onResult ResultHook, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		gen:         gen,
		accessories: accessories,
		onResult:    onResult,
		logger:      logger,
		seen:        make(map[string]string),
	}
}

// IngestPath generates one offer from a .txt, .md or .eml file.
func (i *Ingestor) IngestPath(ctx context.Context, path string) (FileResult, error) {
	out := FileResult{Path: path}
	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.Path = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if !AllowedExt(ext) {
		return out, fmt.Errorf("unsupported or missing extension %q: %w", ext, common.ErrInvalidInput)
	}

	raw, err := readLimited(abs)
	if err != nil {
		return out, err
	}
	sum := sha256.Sum256(raw)
	out.HashHex = hex.EncodeToString(sum[:])

	i.mu.Lock()
	first, dup := i.seen[out.HashHex]
	if !dup {
		i.seen[out.HashHex] = abs
	}
	i.mu.Unlock()
	if dup {
		out.Deduplicated = true
		i.logger.Info("ingest.file.duplicate", zap.String("path", abs), zap.String("same_as", first))
		return out, nil
	}

	text := string(raw)
	if ext == "eml" {
		if text, err = mailText(raw); err != nil {
			return out, fmt.Errorf("parse %s: %w", filepath.Base(abs), err)
		}
	}

	ctx, reqID := common.EnsureRequestID(ctx)
	logger := i.logger.With(zap.String("req_id", reqID), zap.String("path", abs))
	ctx = common.WithLogger(ctx, logger)

	res, err := i.gen.Generate(ctx, pipeline.Request{Text: text, Accessories: i.accessories})
	if i.onResult != nil {
		i.onResult(ctx, abs, res, err)
	}
	if err != nil {
		out.Code = common.ErrorCode(err)
		return out, err
	}
	out.OfferNumber = res.Offer.OfferNumber
	out.NetTotal = res.Summary.NetTotal
	out.DocumentPath = res.DocumentPath
	logger.Info("ingest.file.ok", zap.String("offer_number", out.OfferNumber), zap.String("document", out.DocumentPath))
	return out, nil
}

// IngestDirectory walks root, skips hidden entries if requested, and calls
// IngestPath for each inbox file. Per-file failures are recorded and the
// walk continues.
func (i *Ingestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			r.Err = err.Error()
			results = append(results, r)
			stats.Failed++
			return nil
		}
		results = append(results, r)
		if r.Deduplicated {
			stats.Deduplicated++
		} else {
			stats.Succeeded++
		}
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	i.logger.Info("ingest.dir.done",
		zap.String("root", root),
		zap.Uint32("matched", stats.Matched),
		zap.Uint32("succeeded", stats.Succeeded),
		zap.Uint32("deduplicated", stats.Deduplicated),
		zap.Uint32("failed", stats.Failed))
	return results, stats, nil
}

func readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, maxInboxFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if len(b) > maxInboxFileBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes: %w", filepath.Base(path), maxInboxFileBytes, common.ErrInvalidInput)
	}
	return b, nil
}

// mailText keeps the subject and the plain body of a saved e-mail.
func mailText(raw []byte) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if subj := msg.Header.Get("Subject"); subj != "" {
		b.WriteString(subj)
		b.WriteString("\n\n")
	}
	b.Write(body)
	return b.String(), nil
}

// AllowedExt checks an extension against the inbox set.
func AllowedExt(ext string) bool {
	_, ok := constants.InboxExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
