package forms

import (
	"context"
	"sync"

	"github.com/eugenekravchuk/agriculture-losses/internal/items"
	"github.com/eugenekravchuk/agriculture-losses/internal/predict"
	"github.com/eugenekravchuk/agriculture-losses/pkg/i18n"
	"go.uber.org/zap"
)

// Reporter renders loss reports.
type Reporter interface {
	GeneratePDF(ctx context.Context, req predict.ReportRequest) (*predict.ReportResponse, error)
}

// LossForm collects the loss tables and turns them into a PDF report.
type LossForm struct {
	guard

	tables   *items.Set
	reporter Reporter
	logger   *zap.Logger

	mu         sync.Mutex
	prediction *predict.Prediction
	chart      string
}

// NewLossForm wires the tables to a reporter.
func NewLossForm(tables *items.Set, reporter Reporter, logger *zap.Logger) *LossForm {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LossForm{tables: tables, reporter: reporter, logger: logger}
}

// Tables returns the form's tables.
func (f *LossForm) Tables() *items.Set {
	return f.tables
}

// SetPrediction attaches the forecast shown in the report.
func (f *LossForm) SetPrediction(p *predict.Prediction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prediction = p
}

// SetChart attaches a base64 image of the forecast chart.
func (f *LossForm) SetChart(base64Image string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chart = base64Image
}

// Request assembles the report request from the current state.
func (f *LossForm) Request() predict.ReportRequest {
	f.mu.Lock()
	section := predict.NewReportPrediction(f.prediction)
	section.Chart = f.chart
	f.mu.Unlock()
	return f.tables.ReportRequest(section)
}

// Generate renders the report and returns the PDF bytes. The tables are
// emptied once the document is received.
func (f *LossForm) Generate(ctx context.Context) ([]byte, error) {
	ctx, end, err := f.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer end()

	req := f.Request()
	report, err := f.reporter.GeneratePDF(ctx, req)
	if err == nil {
		var pdf []byte
		if pdf, err = report.PDF(); err == nil {
			f.tables.Reset()
			f.logger.Info("report generated",
				zap.String("op", "forms.LossForm.Generate"),
				zap.Int("bytes", len(pdf)),
			)
			return pdf, nil
		}
	}

	f.logger.Error("report generation failed",
		zap.String("op", "forms.LossForm.Generate"),
		zap.Error(err),
	)
	return nil, serviceError(err, i18n.KeyReportFailed)
}
