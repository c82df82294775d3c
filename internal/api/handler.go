package api

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/chroma-alpha/internal/imaging"
	"github.com/ironsheep/chroma-alpha/internal/logger"
	"github.com/ironsheep/chroma-alpha/internal/metrics"
)

// Multipart form field names accepted by POST /process-image.
const (
	FieldImage         = "image"
	FieldHexColor      = "hex_color"
	FieldTolerance     = "tolerance"
	FieldChokePixels   = "choke_pixels"
	FieldFeatherPixels = "feather_pixels"
)

// multipartMemory is how much of an upload is held in memory before the
// remainder spills to temporary files.
const multipartMemory = 8 << 20

// errBadForm marks malformed requests that never reach the pipeline.
var errBadForm = errors.New("bad form")

// processHandler serves POST /process-image.
type processHandler struct {
	processor Processor
	metrics   *metrics.Metrics
	defaults  imaging.Options
	maxUpload int64
}

func (h *processHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()
	start := time.Now()

	data, opts, err := h.readRequest(w, r)
	if err != nil {
		status := http.StatusBadRequest
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			status = http.StatusRequestEntityTooLarge
		}
		logger.Warn(ctx, "rejected request", zap.Error(err), zap.Int("status", status))
		writeError(w, status, err.Error())
		return
	}

	out, err := h.processor.Process(ctx, data, opts)
	h.metrics.Observe(metrics.SurfaceHTTP, err, time.Since(start), outputPixels(out))
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			logger.Error(ctx, "could not process image", zap.Error(err))
		} else {
			logger.Warn(ctx, "could not process image", zap.Error(err), zap.Int("status", status))
		}
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		logger.Warn(ctx, "could not write response", zap.Error(err))
	}
}

// readRequest parses the multipart upload into image bytes and keying options.
func (h *processHandler) readRequest(w http.ResponseWriter, r *http.Request) ([]byte, imaging.Options, error) {
	opts := h.defaults
	if h.maxUpload > 0 {
		if r.ContentLength > h.maxUpload {
			return nil, opts, &http.MaxBytesError{Limit: h.maxUpload}
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, opts, errors.Wrap(err, "could not parse multipart form")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile(FieldImage)
	if err != nil {
		return nil, opts, errors.Wrapf(errBadForm, "missing %q file field", FieldImage)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, opts, errors.Wrap(err, "could not read uploaded image")
	}

	if v := r.PostFormValue(FieldHexColor); v != "" {
		opts.KeyColor = v
	}
	if v := r.PostFormValue(FieldTolerance); v != "" {
		if opts.Tolerance, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, opts, errors.Wrapf(errBadForm, "%s: %q is not a number", FieldTolerance, v)
		}
	}
	if v := r.PostFormValue(FieldChokePixels); v != "" {
		if opts.ChokePixels, err = strconv.Atoi(v); err != nil {
			return nil, opts, errors.Wrapf(errBadForm, "%s: %q is not an integer", FieldChokePixels, v)
		}
	}
	if v := r.PostFormValue(FieldFeatherPixels); v != "" {
		if opts.FeatherPixels, err = strconv.Atoi(v); err != nil {
			return nil, opts, errors.Wrapf(errBadForm, "%s: %q is not an integer", FieldFeatherPixels, v)
		}
	}

	return data, opts, nil
}

// StatusFor maps a pipeline error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, imaging.ErrResourceExhaustion):
		return http.StatusRequestEntityTooLarge
	case imaging.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = fmt.Fprintln(w, msg)
}

// outputPixels reads the dimensions from the PNG header of a result.
func outputPixels(out []byte) int {
	if len(out) == 0 {
		return 0
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		return 0
	}
	return cfg.Width * cfg.Height
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}
