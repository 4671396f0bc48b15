package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/eugenekravchuk/agriculture-losses/internal/forms"
	"github.com/eugenekravchuk/agriculture-losses/internal/items"
	"github.com/eugenekravchuk/agriculture-losses/internal/predict"
	"github.com/eugenekravchuk/agriculture-losses/pkg/i18n"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type commitRequest struct {
	Table  string            `json:"table"`
	Values map[string]string `json:"values"`
}

type commitResponse struct {
	Table        string         `json:"table"`
	Item         predict.Record `json:"item"`
	LossEstimate string         `json:"lossEstimate"`
}

type tableView struct {
	Table string           `json:"table"`
	Items []predict.Record `json:"items"`
	Total string           `json:"total"`
}

type reportRequest struct {
	Tables     map[string][]map[string]interface{} `json:"tables"`
	Prediction *predict.Prediction                 `json:"prediction,omitempty"`
	Chart      string                              `json:"chart,omitempty"`
}

type reportResponse struct {
	PDFBase64 string `json:"pdfBase64"`
}

func (h *handler) newItemSet() (*items.Set, error) {
	return items.NewSet(h.conf.Tables)
}

// lookupTable answers unknown table names itself.
func (h *handler) lookupTable(w http.ResponseWriter, r *http.Request, set *items.Set, name, op string) (*items.Table, bool) {
	table, err := set.Table(strings.TrimSpace(name))
	if err != nil {
		h.respondLocalized(w, r, http.StatusNotFound, err, i18n.KeyUnknownTable, op)
		return nil, false
	}
	return table, true
}

// handleItemsCommit validates one staged row of a loss table.
func (h *handler) handleItemsCommit(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	const op = "server.handleItemsCommit"

	var req commitRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	set, err := h.newItemSet()
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, err.Error(), op)
		return
	}
	table, ok := h.lookupTable(w, r, set, req.Table, op)
	if !ok {
		return
	}

	for key, value := range req.Values {
		if err := table.SetStaging(key, value); err != nil {
			h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
			return
		}
	}
	item, err := table.CommitStaging()
	if err != nil {
		h.respondLocalized(w, r, http.StatusUnprocessableEntity, err, i18n.KeyAllFieldsRequired, op)
		return
	}

	h.writeJSON(w, r, http.StatusOK, commitResponse{
		Table:        table.Schema().Name,
		Item:         item.Record(),
		LossEstimate: item.LossEstimate().StringFixed(2),
	})
}

// handleItemsUpload reads a CSV or XLSX file into the loss table named by the
// table query parameter.
func (h *handler) handleItemsUpload(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	const op = "server.handleItemsUpload"

	set, err := h.newItemSet()
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, err.Error(), op)
		return
	}
	table, ok := h.lookupTable(w, r, set, r.URL.Query().Get("table"), op)
	if !ok {
		return
	}

	records, ok := h.readRecords(w, r, table.Schema().Columns, op)
	if !ok {
		return
	}
	if err := table.ReplaceRecords(records); err != nil {
		h.respondLocalized(w, r, http.StatusUnprocessableEntity, err, i18n.KeyEmptyFile, op)
		return
	}

	h.writeJSON(w, r, http.StatusOK, tableView{
		Table: table.Schema().Name,
		Items: table.Payload(),
		Total: table.Total().StringFixed(2),
	})
}

// handleReport fills the loss tables from the body and renders the PDF
// report. With ?download=1 the document itself is returned.
func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	const op = "server.handleReport"

	var req reportRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	set, err := h.newItemSet()
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, err.Error(), op)
		return
	}

	for name, rows := range req.Tables {
		if len(rows) == 0 {
			continue
		}
		table, ok := h.lookupTable(w, r, set, name, op)
		if !ok {
			return
		}
		if err := table.ReplaceRecords(stringRecords(rows)); err != nil {
			h.respondLocalized(w, r, http.StatusUnprocessableEntity, fmt.Errorf("table %s: %w", name, err), i18n.KeyAllFieldsRequired, op)
			return
		}
	}

	form := forms.NewLossForm(set, h.service, h.loggerFor(r))
	form.SetPrediction(req.Prediction)
	form.SetChart(req.Chart)
	pdf, err := form.Generate(r.Context())
	if err != nil {
		h.respondLocalized(w, r, statusFor(err), err, i18n.KeyReportFailed, op)
		return
	}

	if r.URL.Query().Get("download") == "1" {
		name := fmt.Sprintf("loss-report-%s.pdf", uuid.NewString())
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(pdf); err != nil {
			h.loggerFor(r).Error("failed to write report", zap.String("op", op), zap.Error(err))
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, reportResponse{
		PDFBase64: predict.EncodePDF(pdf),
	})
}

// stringRecords flattens JSON cells to the text a file upload would carry.
func stringRecords(rows []map[string]interface{}) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]string, len(row))
		for key, value := range row {
			switch v := value.(type) {
			case nil:
				record[key] = ""
			case string:
				record[key] = v
			case json.Number:
				record[key] = v.String()
			default:
				record[key] = fmt.Sprint(v)
			}
		}
		out = append(out, record)
	}
	return out
}

func (h *handler) handleTables(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string][]items.Schema{
		"tables": h.conf.Tables,
	})
}

// handleTablesExport returns the table schemas as a YAML config fragment.
func (h *handler) handleTablesExport(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	const op = "server.handleTablesExport"

	out, err := yaml.Marshal(map[string][]items.Schema{"tables": h.conf.Tables})
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to encode tables: %v", err), op)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.loggerFor(r).Error("failed to write tables", zap.String("op", op), zap.Error(err))
	}
}
