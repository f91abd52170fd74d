package controllers

import (
	"errors"
	json "github.com/goccy/go-json"
	"icd/internal/models"
	"icd/internal/providers"
	"icd/internal/services"
	"icd/internal/structures"
	"io"
	"net/http"
	"time"
)

const (
	uploadField      = "image"
	defaultMaxUpload = 10 << 20 // 10 MB

	msgProcessed      = "Image processed successfully"
	msgNoImage        = "No image file provided"
	msgNoSelectedFile = "No selected file"
	msgNotFound       = "Result not found"
	msgUnexpected     = "Unexpected error: "
)

const uploadFormHTML = `
<!doctype html>
<title>Upload an image</title>
<h1>Upload an image</h1>
<form method=post enctype=multipart/form-data>
    <input type=file name=image>
    <input type=submit value=Upload>
</form>
`

type messageResponse struct {
	Message string `json:"Message"`
}

type errorResponse struct {
	Error string `json:"Error"`
}

type ApiController struct {
	logger        providers.Logger
	service       services.SnapshotServiceInterface
	cache         providers.CacheProviderInterface
	maxUploadSize int64
}

func NewApiController(conf *structures.Config, logger providers.Logger, service services.SnapshotServiceInterface, cache providers.CacheProviderInterface) *ApiController {
	maxUpload := conf.WebServer.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &ApiController{
		logger:        logger,
		service:       service,
		cache:         cache,
		maxUploadSize: maxUpload,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

// serveFromCacheOrCompute answers with the body cached for the snapshot at ts,
// rendering and caching it on a miss.
func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, ts time.Time, compute func() (any, error)) {
	if data, ok := ac.cache.GetResult(ts); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgUnexpected + err.Error()})
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ac.cache.SetResult(ts, gson)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// UploadForm renders the manual upload page.
func (ac *ApiController) UploadForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, uploadFormHTML)
}

// DetectObjects runs one detection cycle on the uploaded "image" file.
func (ac *ApiController) DetectObjects(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, ac.maxUploadSize)

	image, msg, status := ac.readUpload(r)
	if status != http.StatusOK {
		ac.logger.Debugf(providers.GetLogTypeByRequestType(r.Method), "Rejected upload: %s", msg)
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	_, err := ac.service.Submit(r.Context(), image)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, messageResponse{Message: msgProcessed})
	case errors.Is(err, models.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgNoSelectedFile})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgUnexpected + err.Error()})
	}
}

// readUpload extracts the image bytes, or the error message and status to answer with.
func (ac *ApiController) readUpload(r *http.Request) ([]byte, string, int) {
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, msgUnexpected + maxErr.Error(), http.StatusRequestEntityTooLarge
		case errors.Is(err, http.ErrMissingFile) && r.MultipartForm != nil && r.MultipartForm.Value[uploadField] != nil:
			// a file input submitted without choosing a file arrives as a plain value
			return nil, msgNoSelectedFile, http.StatusBadRequest
		default:
			return nil, msgNoImage, http.StatusBadRequest
		}
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, msgNoSelectedFile, http.StatusBadRequest
	}

	image, err := io.ReadAll(file)
	if err != nil {
		return nil, msgUnexpected + err.Error(), http.StatusInternalServerError
	}
	return image, "", http.StatusOK
}

// RetrieveResult answers with the item list of the current snapshot.
func (ac *ApiController) RetrieveResult(w http.ResponseWriter, r *http.Request) {
	logType := providers.GetLogTypeByRequestType(r.Method)
	snapshot, err := ac.service.GetLatest(r.Context())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			ac.logger.Debugf(logType, "No snapshot to serve yet")
			writeJSON(w, http.StatusNotFound, errorResponse{Error: msgNotFound})
			return
		}
		ac.logger.Errorf(logType, "Result retrieval failed: %s", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgUnexpected + err.Error()})
		return
	}

	ac.serveFromCacheOrCompute(w, snapshot.Timestamp, func() (any, error) {
		return models.NewItemList(snapshot.Counts), nil
	})
}
