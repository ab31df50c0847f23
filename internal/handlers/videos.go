package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliphub/backend/internal/logging"
	"github.com/cliphub/backend/internal/models"
	"github.com/cliphub/backend/internal/repositories"
	"github.com/cliphub/backend/internal/videos"
)

// VideoHandler provides endpoints for publishing, browsing, and watching videos.
type VideoHandler struct {
	Videos      VideoStore
	Users       UserStore
	Sessions    SessionManager
	Ingestor    VideoIngestor
	VideoAssets AssetResolver
	ThumbAssets AssetResolver

	// MaxUploadBytes caps the size of an upload request body.
	MaxUploadBytes int64

	// NowFunc allows tests to control record timestamps.
	NowFunc func() time.Time
}

// List handles GET /api/v1/videos, optionally filtered by a title search term.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h VideoHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if _, ok := requireUser(ctx, w, r, h.Sessions, h.Users); !ok {
		return
	}

	search := strings.TrimSpace(r.URL.Query().Get("search"))

	records, err := h.Videos.List(ctx, search)
	if err != nil {
		logger.Error("list videos failed", "search", search, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list videos"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{Videos: records, Search: search})
}

func (h VideoHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := requireSuperuser(ctx, w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("upload exceeds size limit", "limit", tooLarge.Limit, "userId", user.ID)
			respondJSON(ctx, w, http.StatusRequestEntityTooLarge, map[string]string{"error": "uploaded file is too large"})
			return
		}
		logger.Warn("invalid upload form", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		logger.Warn("upload missing file part", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": videos.ErrNoFile.Error()})
		return
	}
	defer file.Close()

	result, err := h.Ingestor.Ingest(ctx, file, header.Filename)
	if err != nil {
		var uploadErr *videos.UploadError
		if errors.As(err, &uploadErr) {
			logger.Warn("upload rejected", "filename", header.Filename, "reason", uploadErr.Reason)
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": uploadErr.Reason})
			return
		}
		logger.Error("upload ingestion failed", "filename", header.Filename, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store video"})
		return
	}

	record := models.Video{
		ID:                uuid.NewString(),
		Title:             title,
		Filename:          result.Filename,
		ThumbnailFilename: result.ThumbnailFilename,
		UploadDate:        h.now().UTC(),
	}

	if err := h.Videos.Create(ctx, record); err != nil {
		logger.Error("persist video record failed", "videoId", record.ID, "error", err)
		h.Ingestor.RemoveAssets(ctx, result)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to save video"})
		return
	}

	logger.Info("video published", "videoId", record.ID, "filename", record.Filename, "userId", user.ID)
	respondJSON(ctx, w, http.StatusCreated, videoResponse{Video: record})
}

// Detail handles GET and DELETE for /api/v1/videos/{id}.
func (h VideoHandler) Detail(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h VideoHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if _, ok := requireUser(ctx, w, r, h.Sessions, h.Users); !ok {
		return
	}

	record, err := h.lookup(w, r)
	if err != nil {
		return
	}

	logger.Debug("video detail served", "videoId", record.ID)
	respondJSON(ctx, w, http.StatusOK, videoResponse{Video: record})
}

func (h VideoHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := requireSuperuser(ctx, w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	record, err := h.lookup(w, r)
	if err != nil {
		return
	}

	if err := h.Videos.Delete(ctx, record.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("delete video record failed", "videoId", record.ID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete video"})
		return
	}

	h.Ingestor.RemoveAssets(ctx, videos.IngestResult{
		Filename:          record.Filename,
		ThumbnailFilename: record.ThumbnailFilename,
	})

	logger.Info("video deleted", "videoId", record.ID, "userId", user.ID)
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Stream handles GET /api/v1/videos/{id}/stream, serving the stored file with
// range support.
func (h VideoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	h.serveAsset(w, r, h.VideoAssets, func(v models.Video) string { return v.Filename })
}

// Thumbnail handles GET /api/v1/videos/{id}/thumbnail.
func (h VideoHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	h.serveAsset(w, r, h.ThumbAssets, func(v models.Video) string { return v.ThumbnailFilename })
}

func (h VideoHandler) serveAsset(w http.ResponseWriter, r *http.Request, assets AssetResolver, key func(models.Video) string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if _, ok := requireUser(ctx, w, r, h.Sessions, h.Users); !ok {
		return
	}

	record, err := h.lookup(w, r)
	if err != nil {
		return
	}

	assetKey := key(record)
	if assetKey == "" || !assets.Exists(assetKey) {
		logger.Warn("stored asset missing", "videoId", record.ID, "key", assetKey)
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "asset not found"})
		return
	}

	http.ServeFile(w, r, assets.Path(assetKey))
}

// lookup resolves the path's video id, writing the error response itself.
func (h VideoHandler) lookup(w http.ResponseWriter, r *http.Request) (models.Video, error) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "video id is required"})
		return models.Video{}, errors.New("missing video id")
	}

	record, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return models.Video{}, err
		}
		logger.Error("load video record failed", "videoId", id, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load video"})
		return models.Video{}, err
	}

	return record, nil
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now()
}

type videoListResponse struct {
	Videos []models.Video `json:"videos"`
	Search string         `json:"search,omitempty"`
}

type videoResponse struct {
	Video models.Video `json:"video"`
}
