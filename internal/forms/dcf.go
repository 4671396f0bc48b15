package forms

import (
	"context"
	"errors"
	"sync"

	"github.com/eugenekravchuk/agriculture-losses/internal/flows"
	"github.com/eugenekravchuk/agriculture-losses/internal/predict"
	"github.com/eugenekravchuk/agriculture-losses/pkg/i18n"
	"go.uber.org/zap"
)

// Predictor requests forecasts.
type Predictor interface {
	Predict(ctx context.Context, req predict.PredictRequest) (*predict.Prediction, error)
}

// DCFForm submits a cash-flow table for a forecast.
type DCFForm struct {
	guard

	table        *flows.Table
	predictor    Predictor
	discountRate float64
	logger       *zap.Logger

	mu   sync.Mutex
	last *predict.Prediction
}

// NewDCFForm wires a table to a predictor.
func NewDCFForm(table *flows.Table, predictor Predictor, discountRate float64, logger *zap.Logger) *DCFForm {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DCFForm{
		table:        table,
		predictor:    predictor,
		discountRate: discountRate,
		logger:       logger,
	}
}

// Table returns the form's table.
func (f *DCFForm) Table() *flows.Table {
	return f.table
}

// Submit validates the table, asks for a forecast and keeps the answer. A
// second call while one is outstanding fails with ErrSubmissionInProgress and
// changes nothing.
func (f *DCFForm) Submit(ctx context.Context) (*predict.Prediction, error) {
	ctx, end, err := f.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer end()

	req, err := f.table.Payload(f.discountRate)
	if err != nil {
		f.logger.Info("forecast submission rejected",
			zap.String("op", "forms.DCFForm.Submit"),
			zap.Error(err),
		)
		return nil, err
	}

	prediction, err := f.predictor.Predict(ctx, req)
	if err != nil {
		f.logger.Error("forecast request failed",
			zap.String("op", "forms.DCFForm.Submit"),
			zap.Int("rows", len(req.Dates)),
			zap.Error(err),
		)
		return nil, serviceError(err, i18n.KeyForecastFailed)
	}
	prediction.FillActuals(req)

	f.mu.Lock()
	f.last = prediction
	f.mu.Unlock()

	f.logger.Info("forecast received",
		zap.String("op", "forms.DCFForm.Submit"),
		zap.Int("rows", len(req.Dates)),
		zap.Int("forecastPoints", len(prediction.ForecastDates)),
		zap.Float64("totalNPV", prediction.TotalNPV),
	)
	return prediction, nil
}

// LastPrediction returns the most recent forecast, or nil.
func (f *DCFForm) LastPrediction() *predict.Prediction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// serviceError attaches a user message to a service failure: the service's
// own detail when it sent one, the generic message otherwise.
func serviceError(err error, fallback string) error {
	var apiErr *predict.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return i18n.Errorf(err, i18n.KeyServiceError, apiErr.Detail)
	}
	return i18n.Errorf(err, fallback)
}
