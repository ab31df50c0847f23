package videos

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cliphub/backend/internal/logging"
)

// AssetStore is the local key/value byte storage the pipeline persists into.
type AssetStore interface {
	Save(key string, r io.Reader) error
	Exists(key string) bool
	Delete(key string) error
	Path(key string) string
}

// ThumbnailExtractor produces a still image for a persisted video file.
type ThumbnailExtractor interface {
	Extract(ctx context.Context, videoPath, thumbnailPath string) error
}

// AssetMirror optionally copies ingested assets to a remote object store.
type AssetMirror interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// IngestResult carries the storage keys produced by a successful ingestion.
type IngestResult struct {
	Filename          string
	ThumbnailFilename string
}

var allowedExtensions = map[string]struct{}{
	"mp4": {}, "avi": {}, "mov": {}, "wmv": {}, "flv": {}, "mkv": {},
}

// Ingestor runs the upload pipeline: validation, file persistence, thumbnail
// extraction with cleanup on failure. Processing is synchronous within the
// request; there is no queue and no cross-request coordination.
type Ingestor struct {
	videos    AssetStore
	thumbs    AssetStore
	extractor ThumbnailExtractor
	logger    *slog.Logger

	// Mirror, when set, receives best-effort copies of ingested assets.
	Mirror AssetMirror
	// NowFunc overrides the clock used for storage key prefixes in tests.
	NowFunc func() time.Time
}

// NewIngestor constructs the ingestion pipeline over the provided stores.
func NewIngestor(videoStore, thumbStore AssetStore, extractor ThumbnailExtractor, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		videos:    videoStore,
		thumbs:    thumbStore,
		extractor: extractor,
		logger:    logger,
	}
}

// Ingest validates and persists an uploaded video, then derives its
// thumbnail. On any failure after the video asset is written, the asset is
// removed again so no orphan files remain. On success the caller owns
// creating the metadata record; if that fails it must call RemoveAssets with
// the returned keys.
func (i *Ingestor) Ingest(ctx context.Context, file io.Reader, declaredFilename string) (IngestResult, error) {
	ctx, span := logging.StartSpan(ctx, "videos.ingest")
	defer span.End()

	declaredFilename = strings.TrimSpace(filepath.Base(declaredFilename))
	if file == nil || declaredFilename == "" || declaredFilename == "." {
		return IngestResult{}, &UploadError{Reason: ErrNoFile.Error(), Err: ErrNoFile}
	}

	if !extensionAllowed(declaredFilename) {
		return IngestResult{}, &UploadError{Reason: ErrInvalidFileType.Error(), Err: ErrInvalidFileType}
	}

	key := i.now().UTC().Format("20060102_150405") + "_" + declaredFilename
	if err := i.videos.Save(key, file); err != nil {
		return IngestResult{}, &UploadError{Reason: "failed to store video", Err: err}
	}

	thumbKey := "thumb_" + strings.TrimSuffix(key, filepath.Ext(key)) + ".jpg"
	if err := i.extractor.Extract(ctx, i.videos.Path(key), i.thumbs.Path(thumbKey)); err != nil {
		i.cleanup(key, thumbKey)
		return IngestResult{}, &UploadError{Reason: "failed to generate thumbnail", Err: err}
	}

	if !i.thumbs.Exists(thumbKey) {
		i.cleanup(key, thumbKey)
		return IngestResult{}, &UploadError{Reason: "failed to generate thumbnail", Err: ErrNoThumbnailOutput}
	}

	result := IngestResult{Filename: key, ThumbnailFilename: thumbKey}
	i.mirrorAssets(ctx, result)
	return result, nil
}

// RemoveAssets deletes both assets for a previously ingested video,
// best-effort. Both deletions are attempted even when one fails; failures are
// logged and never returned.
func (i *Ingestor) RemoveAssets(ctx context.Context, result IngestResult) {
	if result.Filename != "" && i.videos.Exists(result.Filename) {
		if err := i.videos.Delete(result.Filename); err != nil {
			i.logger.Error("remove video asset", "key", result.Filename, "error", err)
		}
	}
	if result.ThumbnailFilename != "" && i.thumbs.Exists(result.ThumbnailFilename) {
		if err := i.thumbs.Delete(result.ThumbnailFilename); err != nil {
			i.logger.Error("remove thumbnail asset", "key", result.ThumbnailFilename, "error", err)
		}
	}

	if i.Mirror == nil {
		return
	}
	for _, key := range []string{result.Filename, result.ThumbnailFilename} {
		if key == "" {
			continue
		}
		if err := i.Mirror.Delete(ctx, key); err != nil {
			i.logger.Warn("remove mirrored asset", "key", key, "error", err)
		}
	}
}

func (i *Ingestor) cleanup(key, thumbKey string) {
	if err := i.videos.Delete(key); err != nil {
		i.logger.Error("cleanup video asset after failed ingest", "key", key, "error", err)
	}
	// ffmpeg may have written a partial image before failing.
	if i.thumbs.Exists(thumbKey) {
		if err := i.thumbs.Delete(thumbKey); err != nil {
			i.logger.Error("cleanup partial thumbnail", "key", thumbKey, "error", err)
		}
	}
}

func (i *Ingestor) mirrorAssets(ctx context.Context, result IngestResult) {
	if i.Mirror == nil {
		return
	}

	assets := []struct {
		store AssetStore
		key   string
	}{
		{i.videos, result.Filename},
		{i.thumbs, result.ThumbnailFilename},
	}
	for _, asset := range assets {
		store, key := asset.store, asset.key
		f, err := os.Open(store.Path(key))
		if err != nil {
			i.logger.Warn("open asset for mirroring", "key", key, "error", err)
			continue
		}
		if _, err := i.Mirror.Save(ctx, key, f); err != nil {
			i.logger.Warn("mirror asset", "key", key, "error", err)
		}
		f.Close()
	}
}

func (i *Ingestor) now() time.Time {
	if i.NowFunc != nil {
		return i.NowFunc()
	}
	return time.Now()
}

func extensionAllowed(filename string) bool {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return false
	}
	_, ok := allowedExtensions[strings.ToLower(filename[idx+1:])]
	return ok
}
