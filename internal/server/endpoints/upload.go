package endpoints

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jackzampolin/quire/internal/api"
	"github.com/jackzampolin/quire/internal/normalize"
	"github.com/jackzampolin/quire/internal/svcctx"
	"github.com/jackzampolin/quire/internal/types"
)

const (
	// defaultMaxUpload applies when no config is in the request context.
	defaultMaxUpload = 100 << 20
	// maxFormMemory is how much of a form is buffered before spilling to disk.
	maxFormMemory = 32 << 20
)

// uploadError carries the status a failed upload is reported with.
type uploadError struct {
	status int
	msg    string
}

func (e *uploadError) Error() string { return e.msg }

// readUpload parses a multipart request and returns its "file" part.
// The caller must call r.MultipartForm.RemoveAll when err is nil.
func readUpload(w http.ResponseWriter, r *http.Request) (normalize.Input, error) {
	limit := int64(defaultMaxUpload)
	if cfg := svcctx.ConfigFrom(r.Context()); cfg != nil {
		limit = cfg.Server.MaxUploadBytes()
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return normalize.Input{}, &uploadError{http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", limit)}
		}
		return normalize.Input{}, &uploadError{http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err)}
	}

	f, fh, err := r.FormFile("file")
	if err != nil {
		r.MultipartForm.RemoveAll()
		return normalize.Input{}, &uploadError{http.StatusBadRequest, "no file uploaded"}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		r.MultipartForm.RemoveAll()
		return normalize.Input{}, &uploadError{http.StatusBadRequest, fmt.Sprintf("failed to read upload: %v", err)}
	}

	return normalize.Input{
		Name:      fh.Filename,
		MediaType: fh.Header.Get("Content-Type"),
		Data:      data,
	}, nil
}

// writeUploadError reports an error returned by readUpload.
func writeUploadError(w http.ResponseWriter, err error) {
	var ue *uploadError
	if errors.As(err, &ue) {
		writeError(w, ue.status, ue.msg)
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// errorStatus maps conversion errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, types.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, types.ErrDecodeFailure):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrExtractorUnavailable),
		errors.Is(err, types.ErrPackagingUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// formBool reads a boolean form value, returning def when it is absent.
func formBool(r *http.Request, key string, def bool) (bool, error) {
	raw := r.FormValue(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}

// fileForm reads path into a multipart upload form.
func fileForm(path string, fields map[string]string) (api.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.Form{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return api.Form{
		FileName: filepath.Base(path),
		File:     data,
		Fields:   fields,
	}, nil
}
