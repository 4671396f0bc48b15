package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/eugenekravchuk/agriculture-losses/internal/flows"
	"github.com/eugenekravchuk/agriculture-losses/internal/forms"
	"github.com/eugenekravchuk/agriculture-losses/internal/ingest"
	"github.com/eugenekravchuk/agriculture-losses/internal/items"
	"github.com/eugenekravchuk/agriculture-losses/internal/predict"
	"github.com/eugenekravchuk/agriculture-losses/pkg/i18n"
	"github.com/eugenekravchuk/agriculture-losses/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type formatRequest struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type formatResponse struct {
	Value string `json:"value"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

type fieldErrorView struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type flowsRequest struct {
	Rows         []flows.EntryRow `json:"rows"`
	Action       string           `json:"action,omitempty"`
	DiscountRate *float64         `json:"discountRate,omitempty"`
}

type flowsResponse struct {
	Rows          []flows.EntryRow `json:"rows"`
	Errors        []fieldErrorView `json:"errors"`
	LastRowFilled bool             `json:"lastRowFilled"`
	Submittable   bool             `json:"submittable"`
	Message       string           `json:"message,omitempty"`
}

type forecastResponse struct {
	Prediction *predict.Prediction `json:"prediction"`
	Chart      *forms.ChartModel   `json:"chart"`
}

func (h *handler) newFlowTable(r *http.Request) *flows.Table {
	return flows.NewTable(h.conf.FlowPolicy(), flows.WithClock(h.now), flows.WithLogger(h.loggerFor(r)))
}

func flowField(kind string) (flows.Field, bool) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "date":
		return flows.FieldDate, true
	case "amount", strings.ToLower(string(flows.FieldCashFlow)):
		return flows.FieldCashFlow, true
	default:
		return "", false
	}
}

// handleFormat applies an input mask to one keystroke value and validates
// the result.
func (h *handler) handleFormat(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	const op = "server.handleFormat"

	var req formatRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	field, ok := flowField(req.Kind)
	if !ok {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "kind must be one of: date, amount", op)
		return
	}

	table := h.newFlowTable(r)
	value, err := table.UpdateField(0, field, req.Value)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	resp := formatResponse{Value: value, Valid: value != ""}
	for _, fe := range table.Errors() {
		resp.Valid = false
		resp.Error = fe.Message(languageOf(r))
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// handleFlowsValidate masks and validates a whole cash-flow table, optionally
// appending a blank row.
func (h *handler) handleFlowsValidate(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	const op = "server.handleFlowsValidate"

	var req flowsRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	table := h.newFlowTable(r)
	if len(req.Rows) > 0 {
		if err := table.Replace(req.Rows); err != nil {
			h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
			return
		}
	}

	var message string
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "":
	case "append":
		if err := table.AppendBlankRow(); err != nil {
			if msg, ok := i18n.MessageOf(err); ok {
				message = msg.In(languageOf(r))
			}
		}
	default:
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "action must be empty or append", op)
		return
	}

	h.writeJSON(w, r, http.StatusOK, h.flowsView(table, languageOf(r), message))
}

// handleFlowsUpload reads a CSV or XLSX file into a cash-flow table.
func (h *handler) handleFlowsUpload(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	const op = "server.handleFlowsUpload"

	records, ok := h.readRecords(w, r, flows.Columns, op)
	if !ok {
		return
	}

	table := h.newFlowTable(r)
	if err := table.ReplaceRecords(records); err != nil {
		h.respondLocalized(w, r, http.StatusUnprocessableEntity, err, i18n.KeyEmptyFile, op)
		return
	}
	h.writeJSON(w, r, http.StatusOK, h.flowsView(table, languageOf(r), ""))
}

// handleForecast submits a cash-flow table to the prediction service.
func (h *handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	const op = "server.handleForecast"

	var req flowsRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	if req.DiscountRate != nil && *req.DiscountRate < 0 {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "discountRate must not be negative", op)
		return
	}

	table := h.newFlowTable(r)
	if len(req.Rows) > 0 {
		if err := table.Replace(req.Rows); err != nil {
			h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
			return
		}
	}

	rate := h.conf.API.DiscountRate
	if req.DiscountRate != nil {
		rate = *req.DiscountRate
	}
	form := forms.NewDCFForm(table, h.service, rate, h.loggerFor(r))
	prediction, err := form.Submit(r.Context())
	if err != nil {
		h.respondLocalized(w, r, statusFor(err), err, i18n.KeyForecastFailed, op)
		return
	}

	h.writeJSON(w, r, http.StatusOK, forecastResponse{
		Prediction: prediction,
		Chart:      forms.Chart(prediction),
	})
}

// readRecords parses the uploaded file against columns. Failures are
// answered here.
func (h *handler) readRecords(w http.ResponseWriter, r *http.Request, columns []ingest.Column, op string) ([]map[string]string, bool) {
	filename, data, ok := h.readUpload(w, r, op)
	if !ok {
		return nil, false
	}

	format, err := ingest.DetectFormat(filename)
	if err != nil {
		h.respondLocalized(w, r, http.StatusUnsupportedMediaType, err, i18n.KeyEmptyFile, op)
		return nil, false
	}
	records, err := ingest.ReadRecords(bytes.NewReader(data), format, columns, h.ingestOpts)
	if err != nil {
		h.respondLocalized(w, r, http.StatusUnprocessableEntity, err, i18n.KeyEmptyFile, op)
		return nil, false
	}

	h.loggerFor(r).Info("upload parsed",
		zap.String("op", op),
		zap.String("file", filename),
		zap.String("format", string(format)),
		zap.Int("records", len(records)),
	)
	return records, true
}

func (h *handler) flowsView(table *flows.Table, tag language.Tag, message string) flowsResponse {
	list := table.Errors()
	views := make([]fieldErrorView, 0, len(list))
	for _, fe := range list {
		views = append(views, fieldErrorView{
			Row:     fe.Row,
			Field:   string(fe.Field),
			Message: fe.Message(tag),
		})
	}
	_, payloadErr := table.Payload(h.conf.API.DiscountRate)
	return flowsResponse{
		Rows:          table.Rows(),
		Errors:        views,
		LastRowFilled: table.IsLastRowFilled(),
		Submittable:   payloadErr == nil,
		Message:       message,
	}
}

// statusFor maps a form failure onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, forms.ErrSubmissionInProgress):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, flows.ErrInvalidRows),
		errors.Is(err, flows.ErrNoRows),
		errors.Is(err, validation.ErrTooFewYears),
		errors.Is(err, items.ErrIncompleteRow),
		errors.Is(err, items.ErrNotNumber),
		errors.Is(err, items.ErrNoRecords):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
