package forms

import "github.com/eugenekravchuk/agriculture-losses/internal/predict"

// ChartModel is the line chart of a forecast: actual values over the
// historical dates, then forecast values over the forecast dates.
type ChartModel struct {
	Labels   []string   `json:"labels"`
	Actual   []float64  `json:"actual"`
	Forecast []*float64 `json:"forecast"`
}

// Chart lays a prediction out for display. The forecast series is padded
// with nulls over the historical span so both series share the label axis.
func Chart(p *predict.Prediction) *ChartModel {
	if p == nil {
		return nil
	}
	labels := make([]string, 0, len(p.Dates)+len(p.ForecastDates))
	labels = append(labels, p.Dates...)
	labels = append(labels, p.ForecastDates...)

	forecast := make([]*float64, len(p.Dates), len(p.Dates)+len(p.ForecastValues))
	for i := range p.ForecastValues {
		v := p.ForecastValues[i]
		forecast = append(forecast, &v)
	}

	return &ChartModel{
		Labels:   labels,
		Actual:   append([]float64{}, p.Values...),
		Forecast: forecast,
	}
}
