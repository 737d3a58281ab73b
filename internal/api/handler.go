package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wgomg/kayum/internal/config"
	"github.com/wgomg/kayum/internal/embedding"
	"github.com/wgomg/kayum/internal/imagesource"
	"github.com/wgomg/kayum/internal/index"
	"github.com/wgomg/kayum/internal/pipeline"
	"github.com/wgomg/kayum/internal/utils"
	"github.com/wgomg/kayum/internal/utils/httputils"
	"github.com/wgomg/kayum/internal/vision"
)

// uploads above this stay on disk until the request finishes
const maxUploadMemory = 32 << 20

type Handler struct {
	logger   *logrus.Logger
	pipeline *pipeline.Pipeline
	cfg      *config.Config
}

func NewHandler(logger *logrus.Logger, p *pipeline.Pipeline, cfg *config.Config) *Handler {
	return &Handler{
		logger:   logger,
		pipeline: p,
		cfg:      cfg,
	}
}

func (h *Handler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := utils.LogEntry(ctx, h.logger)

	if err := httputils.ValidateMethod(r, http.MethodPost); err != nil {
		log.WithError(err).Error("method validation error")
		httputils.HandleError(w, err)
		return
	}

	var (
		src  imagesource.Source
		topK int
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, formTopK, err := h.parseUpload(r)
		if err != nil {
			log.WithError(err).Error("invalid upload request")
			httputils.HandleError(w, err)
			return
		}
		defer file.Close()

		src, topK = imagesource.FromReader(file), formTopK
	} else {
		payload, err := h.decodeMatchRequest(r, log)
		if err != nil {
			log.WithError(err).Error("invalid match request")
			httputils.HandleError(w, err)
			return
		}

		src, err = sourceFromRequest(payload)
		if err != nil {
			log.WithError(err).Error("invalid match request")
			httputils.HandleError(w, err)
			return
		}
		topK = payload.TopK
	}

	result, err := h.pipeline.ProcessTopK(ctx, src, topK)
	if err != nil {
		h.writePipelineError(w, log, err)
		return
	}

	response := MatchResponse{
		Description: result.Description,
		Matches:     toMatchItems(result.Matches),
	}

	if err := httputils.SuccessResponse(w, "Match completed successfully", response); err != nil {
		log.WithError(err).Error("error sending response")
	}
}

func (h *Handler) HandleMatchBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := utils.LogEntry(ctx, h.logger)

	if err := httputils.ValidateMethod(r, http.MethodPost); err != nil {
		log.WithError(err).Error("method validation error")
		httputils.HandleError(w, err)
		return
	}

	if h.cfg.App.RawBodyLog {
		if _, err := httputils.LogRequestBody(r, log); err != nil {
			log.WithError(err).Error("failed to read request body")
			httputils.HandleError(w, err)
			return
		}
	}

	var payload BatchRequest
	if err := httputils.DecodeJSON(r, &payload); err != nil {
		log.WithError(err).Error("invalid batch request")
		httputils.HandleError(w, err)
		return
	}

	if len(payload.Sources) == 0 {
		err := &httputils.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "At least one source is required",
		}
		log.WithError(err).Error("invalid batch request")
		httputils.HandleError(w, err)
		return
	}

	sources := make([]imagesource.Source, len(payload.Sources))
	for i := range payload.Sources {
		src, err := sourceFromRequest(&payload.Sources[i])
		if err != nil {
			log.WithError(err).WithField("source_index", i).Error("invalid batch request")
			httputils.HandleError(w, &httputils.HTTPError{
				Code:    http.StatusBadRequest,
				Message: fmt.Sprintf("Invalid source at index %d: %s", i, err.Error()),
			})
			return
		}
		sources[i] = src
	}

	items := h.pipeline.ProcessAllTopK(ctx, sources, payload.TopK)

	var processed, failed int
	results := make([]BatchItemResponse, len(items))
	for i, item := range items {
		entry := BatchItemResponse{Source: item.Source.Describe()}
		if item.Err != nil {
			failed++
			entry.Error = item.Err.Error()
		} else {
			processed++
			entry.Result = &MatchResponse{
				Description: item.Result.Description,
				Matches:     toMatchItems(item.Result.Matches),
			}
		}
		results[i] = entry
	}

	response := map[string]any{
		"status":    "completed",
		"total":     len(items),
		"processed": processed,
		"failed":    failed,
		"results":   results,
	}

	if err := httputils.SuccessResponse(w, "Batch matching completed", response); err != nil {
		log.WithError(err).Error("error sending response")
	}
}

func (h *Handler) decodeMatchRequest(r *http.Request, log *logrus.Entry) (*MatchRequest, error) {
	if h.cfg.App.RawBodyLog {
		if _, err := httputils.LogRequestBody(r, log); err != nil {
			return nil, err
		}
	}

	var payload MatchRequest
	if err := httputils.DecodeJSON(r, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (h *Handler) parseUpload(r *http.Request) (multipart.File, int, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, 0, &httputils.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Invalid multipart form: " + err.Error(),
		}
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, 0, &httputils.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Missing image file field",
		}
	}

	topK := 0
	if raw := r.FormValue("top_k"); raw != "" {
		topK, err = strconv.Atoi(raw)
		if err != nil {
			file.Close()
			return nil, 0, &httputils.HTTPError{
				Code:    http.StatusBadRequest,
				Message: "Invalid top_k value: " + raw,
			}
		}
	}

	return file, topK, nil
}

func sourceFromRequest(payload *MatchRequest) (imagesource.Source, error) {
	var sources []imagesource.Source
	if payload.ImageURL != "" {
		sources = append(sources, imagesource.FromURL(payload.ImageURL))
	}
	if payload.ImagePath != "" {
		sources = append(sources, imagesource.FromPath(payload.ImagePath))
	}
	if payload.BucketObject != "" {
		sources = append(sources, imagesource.FromBucket(payload.BucketObject))
	}

	if len(sources) != 1 {
		return imagesource.Source{}, &httputils.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Exactly one of image_url, image_path or bucket_object is required",
		}
	}
	return sources[0], nil
}

func toMatchItems(records []index.MatchRecord) []MatchItem {
	items := make([]MatchItem, len(records))
	for i, record := range records {
		items[i] = MatchItem{
			Score:      record.Score,
			Song:       record.Song,
			Artist:     record.Artist,
			Link:       record.Link,
			SearchHint: record.SearchHint(),
		}
	}
	return items
}

func (h *Handler) writePipelineError(w http.ResponseWriter, log *logrus.Entry, err error) {
	var pipeErr *pipeline.PipelineError
	if errors.As(err, &pipeErr) {
		log = log.WithField("failed_stage", pipeErr.Stage)
	}
	log.WithError(err).Error("match request failed")

	httputils.JSONError(w, pipelineErrorStatus(err), err.Error())
}

// pipelineErrorStatus maps a pipeline failure to the response status: the
// caller's fault reads as 4xx, a misbehaving upstream as 502.
func pipelineErrorStatus(err error) int {
	switch {
	case errors.Is(err, imagesource.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, imagesource.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, imagesource.ErrEmptyImage):
		return http.StatusBadRequest
	}

	var (
		ioErr    *imagesource.IOError
		fetchErr *imagesource.FetchError
		descErr  *vision.DescriptionError
		embedErr *embedding.EmbeddingError
		queryErr *index.QueryError
	)

	switch {
	case errors.As(err, &ioErr):
		return http.StatusBadRequest
	case errors.As(err, &fetchErr),
		errors.As(err, &descErr),
		errors.As(err, &embedErr),
		errors.As(err, &queryErr):
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}
