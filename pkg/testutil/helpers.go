// Package testutil provides common utility functions for testing.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/eugenekravchuk/agriculture-losses/internal/predict"
	"github.com/eugenekravchuk/agriculture-losses/pkg/constants"
	"github.com/eugenekravchuk/agriculture-losses/pkg/datetime"
)

// FixedNow is the reference "today" used across tests.
var FixedNow = datetime.MustParseTime(time.RFC3339, "2026-10-19T12:00:00Z")

// Clock returns a clock that always reports t.
func Clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// SamplePrediction returns a one-step forecast for two years of actuals.
func SamplePrediction() *predict.Prediction {
	return &predict.Prediction{
		ForecastDates:  []string{"01.01.2022"},
		ForecastValues: []float64{1400},
		DCFValues:      []float64{1272.73},
		TotalNPV:       2272.73,
	}
}

// FakeService is an in-memory prediction service. It records every request
// and answers with the configured prediction, PDF or error.
type FakeService struct {
	mu sync.Mutex

	Prediction *predict.Prediction
	PDF        []byte
	Err        error

	PredictRequests []predict.PredictRequest
	ReportRequests  []predict.ReportRequest
}

// Predict records req and returns a copy of Prediction.
func (f *FakeService) Predict(ctx context.Context, req predict.PredictRequest) (*predict.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PredictRequests = append(f.PredictRequests, req)
	if f.Err != nil {
		return nil, f.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Prediction == nil {
		return SamplePrediction(), nil
	}
	p := *f.Prediction
	p.Dates = append([]string(nil), f.Prediction.Dates...)
	p.Values = append([]float64(nil), f.Prediction.Values...)
	return &p, nil
}

// GeneratePDF records req and returns PDF as base64.
func (f *FakeService) GeneratePDF(ctx context.Context, req predict.ReportRequest) (*predict.ReportResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ReportRequests = append(f.ReportRequests, req)
	if f.Err != nil {
		return nil, f.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &predict.ReportResponse{PDFBase64: predict.EncodePDF(f.PDF)}, nil
}

// LastPredictRequest returns the most recent forecast request.
func (f *FakeService) LastPredictRequest() (predict.PredictRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.PredictRequests) == 0 {
		return predict.PredictRequest{}, false
	}
	return f.PredictRequests[len(f.PredictRequests)-1], true
}

// LastReportRequest returns the most recent report request.
func (f *FakeService) LastReportRequest() (predict.ReportRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ReportRequests) == 0 {
		return predict.ReportRequest{}, false
	}
	return f.ReportRequests[len(f.ReportRequests)-1], true
}

// NewPredictionServer serves the remote API over HTTP backed by svc, so
// tests can point a real predict.Client at it.
func NewPredictionServer(t *testing.T, svc *FakeService) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(constants.PredictPath, func(w http.ResponseWriter, r *http.Request) {
		var req predict.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		p, err := svc.Predict(r.Context(), req)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeBody(w, http.StatusOK, p)
	})
	mux.HandleFunc(constants.GeneratePDFPath, func(w http.ResponseWriter, r *http.Request) {
		var req predict.ReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		resp, err := svc.GeneratePDF(r.Context(), req)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeBody(w, http.StatusOK, resp)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeBody(w, status, map[string]string{"detail": detail})
}

func writeBody(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
