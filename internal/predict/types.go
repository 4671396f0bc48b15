// Package predict talks to the remote forecasting service that computes
// DCF forecasts and renders loss reports as PDF documents.
package predict

import (
	"encoding/base64"
	"fmt"
)

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Dates        []string  `json:"dates"`
	Values       []float64 `json:"values"`
	DiscountRate float64   `json:"discount_rate"`
}

// Prediction is the forecast returned by the service. Dates and Values echo
// the actual cash flows and may be omitted by the service.
type Prediction struct {
	Dates          []string  `json:"dates,omitempty"`
	Values         []float64 `json:"values,omitempty"`
	ForecastDates  []string  `json:"forecast_dates"`
	ForecastValues []float64 `json:"forecast_values"`
	DCFValues      []float64 `json:"dcf_values"`
	TotalNPV       float64   `json:"total_npv"`
}

// FillActuals copies the submitted dates and values into the prediction when
// the service left them out.
func (p *Prediction) FillActuals(req PredictRequest) {
	if len(p.Dates) == 0 {
		p.Dates = append([]string(nil), req.Dates...)
	}
	if len(p.Values) == 0 {
		p.Values = append([]float64(nil), req.Values...)
	}
}

func (p *Prediction) check() error {
	if len(p.ForecastDates) != len(p.ForecastValues) {
		return fmt.Errorf("%w: %d forecast dates for %d forecast values",
			ErrMalformedResponse, len(p.ForecastDates), len(p.ForecastValues))
	}
	if len(p.Dates) > 0 && len(p.Values) > 0 && len(p.Dates) != len(p.Values) {
		return fmt.Errorf("%w: %d dates for %d values", ErrMalformedResponse, len(p.Dates), len(p.Values))
	}
	return nil
}

// Record is one item row in a report request, keyed by column key.
type Record map[string]interface{}

// ReportPrediction is the forecast section of a report request. Chart holds a
// base64 image of the forecast chart and is sent as "" when there is none.
type ReportPrediction struct {
	ForecastDates  []string  `json:"forecast_dates"`
	ForecastValues []float64 `json:"forecast_values"`
	DCFValues      []float64 `json:"dcf_values"`
	TotalNPV       float64   `json:"total_npv"`
	Chart          string    `json:"chart"`
}

// NewReportPrediction converts a prediction into its report form. A nil
// prediction yields an all-zero section with empty arrays.
func NewReportPrediction(p *Prediction) ReportPrediction {
	rp := ReportPrediction{
		ForecastDates:  []string{},
		ForecastValues: []float64{},
		DCFValues:      []float64{},
	}
	if p == nil {
		return rp
	}
	rp.ForecastDates = append(rp.ForecastDates, p.ForecastDates...)
	rp.ForecastValues = append(rp.ForecastValues, p.ForecastValues...)
	rp.DCFValues = append(rp.DCFValues, p.DCFValues...)
	rp.TotalNPV = p.TotalNPV
	return rp
}

// ReportRequest is the body of POST /generate-pdf.
type ReportRequest struct {
	Technique   []Record         `json:"technique"`
	Animals     []Record         `json:"animals"`
	Territories []Record         `json:"territories"`
	Buildings   []Record         `json:"buildings"`
	Prediction  ReportPrediction `json:"prediction"`
}

// ReportResponse carries the rendered PDF as base64 text.
type ReportResponse struct {
	PDFBase64 string `json:"pdf_base64"`
}

// PDF decodes the document.
func (r ReportResponse) PDF() ([]byte, error) {
	if r.PDFBase64 == "" {
		return nil, fmt.Errorf("%w: empty pdf_base64", ErrMalformedResponse)
	}
	data, err := base64.StdEncoding.DecodeString(r.PDFBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode pdf_base64: %v", ErrMalformedResponse, err)
	}
	return data, nil
}

// EncodePDF is the inverse of ReportResponse.PDF.
func EncodePDF(pdf []byte) string {
	return base64.StdEncoding.EncodeToString(pdf)
}
