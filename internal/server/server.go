package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/eugenekravchuk/agriculture-losses/internal/config"
	"github.com/eugenekravchuk/agriculture-losses/internal/forms"
	"github.com/eugenekravchuk/agriculture-losses/internal/ingest"
	"github.com/eugenekravchuk/agriculture-losses/pkg/constants"
	"github.com/eugenekravchuk/agriculture-losses/pkg/i18n"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Service is the remote prediction service as the handlers use it.
type Service interface {
	forms.Predictor
	forms.Reporter
}

type handler struct {
	logger        *zap.Logger
	conf          *config.Configuration
	ingestOpts    ingest.Options
	service       Service
	maxUploadSize int64
	version       string
	now           func() time.Time
}

// NewHandler constructs the HTTP handler that serves the form API.
func NewHandler(logger *zap.Logger, conf *config.Configuration, service Service, maxUploadSize int64, version string) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conf == nil {
		conf = config.Default()
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	ingestOpts, err := conf.IngestOptions()
	if err != nil {
		return nil, err
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		conf:          conf,
		ingestOpts:    ingestOpts,
		service:       service,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		now:           time.Now,
	}

	mux := http.NewServeMux()

	// Input masks
	mux.HandleFunc("/api/format", h.handleFormat)

	// Cash-flow table
	mux.HandleFunc("/api/flows/validate", h.handleFlowsValidate)
	mux.HandleFunc("/api/flows/upload", h.handleFlowsUpload)
	mux.HandleFunc("/api/forecast", h.handleForecast)

	// Loss tables and report
	mux.HandleFunc("/api/items/commit", h.handleItemsCommit)
	mux.HandleFunc("/api/items/upload", h.handleItemsUpload)
	mux.HandleFunc("/api/report", h.handleReport)

	// Schemas and configuration
	mux.HandleFunc("/api/tables", h.handleTables)
	mux.HandleFunc("/api/tables/export", h.handleTablesExport)
	mux.HandleFunc("/api/config/export", h.handleConfigExport)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return h.withRequestID(mux), nil
}

type ctxKey int

const loggerKey ctxKey = iota

// statusRecorder remembers the status written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestID tags every request with an id, echoes it in the response and
// logs the outcome.
func (h *handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := strings.TrimSpace(r.Header.Get(constants.RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(constants.RequestIDHeader, id)

		logger := h.logger.With(zap.String("requestID", id))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), loggerKey, logger)))

		logger.Debug("request handled",
			zap.String("op", "server.withRequestID"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *handler) loggerFor(r *http.Request) *zap.Logger {
	if logger, ok := r.Context().Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return h.logger
}

func languageOf(r *http.Request) language.Tag {
	return i18n.Match(r.Header.Get("Accept-Language"))
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// decodeJSON reads a JSON body capped at the upload limit.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

// readUpload returns the name and contents of the "file" form field.
func (h *handler) readUpload(w http.ResponseWriter, r *http.Request, op string) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return "", nil, false
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "missing upload file", op)
		return "", nil, false
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.loggerFor(r).Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to read upload: %v", err), op)
		return "", nil, false
	}
	return header.Filename, data, true
}

// respondLocalized answers with the user message carried by err, or the
// fallback message when err has none.
func (h *handler) respondLocalized(w http.ResponseWriter, r *http.Request, status int, err error, fallback string, op string) {
	msg, ok := i18n.MessageOf(err)
	if !ok {
		msg = i18n.New(fallback)
	}
	h.loggerFor(r).Info("request rejected",
		zap.String("op", op),
		zap.Int("status", status),
		zap.Error(err),
	)
	h.writeJSON(w, r, status, map[string]string{"error": msg.In(languageOf(r))})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	logger := h.loggerFor(r)
	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Warn("request failed", fields...)
	}

	h.writeJSON(w, r, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.loggerFor(r).Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	raw, err := yaml.Marshal(h.conf)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to encode configuration: %v", err), "server.handleConfigExport")
		return
	}
	configMap, err := decodeYAMLToMap(raw)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to encode configuration: %v", err), "server.handleConfigExport")
		return
	}
	yamlBytes, err := marshalOrderedConfigYAML(configMap)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to encode configuration: %v", err), "server.handleConfigExport")
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

// marshalOrderedConfigYAML writes logging and output first and the other
// sections alphabetically.
func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range []string{"logging", "output"} {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	return yaml.Marshal(orderedConfig{items: items})
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}
