package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/eugenekravchuk/agriculture-losses/internal/flows"
	"github.com/eugenekravchuk/agriculture-losses/internal/forms"
	"github.com/eugenekravchuk/agriculture-losses/internal/ingest"
	"github.com/eugenekravchuk/agriculture-losses/internal/items"
	"github.com/eugenekravchuk/agriculture-losses/internal/predict"
	"github.com/eugenekravchuk/agriculture-losses/pkg/output"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// readRecords loads a CSV or XLSX file against columns.
func (a *app) readRecords(path string, columns []ingest.Column) ([]map[string]string, error) {
	format, err := ingest.DetectFormat(path)
	if err != nil {
		return nil, err
	}
	opts, err := a.conf.IngestOptions()
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			a.logger.Warn("failed to close input file",
				zap.String("op", "main.readRecords"),
				zap.String("file", path),
				zap.Error(closeErr),
			)
		}
	}()

	return ingest.ReadRecords(file, format, columns, opts)
}

// loadFlows reads a cash-flow file into a new table.
func (a *app) loadFlows(path string) (*flows.Table, error) {
	records, err := a.readRecords(path, flows.Columns)
	if err != nil {
		return nil, err
	}
	table := flows.NewTable(a.conf.FlowPolicy(), flows.WithLogger(a.logger))
	if err := table.ReplaceRecords(records); err != nil {
		return nil, err
	}
	for _, fe := range table.Errors() {
		a.logger.Warn("invalid cash-flow field",
			zap.String("op", "main.loadFlows"),
			zap.Int("row", fe.Row+1),
			zap.String("field", string(fe.Field)),
			zap.String("message", fe.Msg.String()),
		)
	}
	return table, nil
}

// runForecast submits the cash flows in path and returns the prediction.
func (a *app) runForecast(cmd *cobra.Command, path string, rate float64) (*predict.Prediction, error) {
	table, err := a.loadFlows(path)
	if err != nil {
		return nil, a.userError(err, "main.forecast")
	}
	form := forms.NewDCFForm(table, a.client(), rate, a.logger)
	prediction, err := form.Submit(cmd.Context())
	if err != nil {
		return nil, a.userError(err, "main.forecast")
	}
	return prediction, nil
}

func (a *app) forecastCmd() *cobra.Command {
	var flowsPath string
	var rate float64
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Request a DCF forecast for a cash-flow file",
		Long: `Read dated cash flows from a CSV or XLSX file with the columns "Дата" and
"Грошовий потік" (or "date" and "cashFlow"), validate them and print the
forecast returned by the prediction service.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("discount-rate") {
				rate = a.conf.API.DiscountRate
			}
			if rate < 0 {
				return fmt.Errorf("discount rate must not be negative, got %v", rate)
			}

			prediction, err := a.runForecast(cmd, flowsPath, rate)
			if err != nil {
				return err
			}
			return output.Forecast(cmd.OutOrStdout(), prediction, a.conf.Output.Format)
		},
	}
	cmd.Flags().StringVar(&flowsPath, "flows", "", "cash-flow file (.csv, .xlsx)")
	cmd.Flags().Float64Var(&rate, "discount-rate", 0, "discount rate override (default from api.discountRate)")
	_ = cmd.MarkFlagRequired("flows")
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	var (
		flowsPath      string
		predictionPath string
		chartPath      string
		outPath        string
		tablePaths     = make(map[string]*string)
		extraTables    map[string]string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the loss report as PDF",
		Long: `Load the loss tables from CSV or XLSX files, attach a forecast and render the
loss report through the prediction service. The forecast is either computed
from --flows or read from a JSON file written by "agriloss forecast
--output-format json".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flowsPath != "" && predictionPath != "" {
				return fmt.Errorf("--flows and --prediction are mutually exclusive")
			}

			set, err := items.NewSet(a.conf.Tables)
			if err != nil {
				return err
			}
			paths := make(map[string]string, len(tablePaths)+len(extraTables))
			for name, path := range tablePaths {
				if *path != "" {
					paths[name] = *path
				}
			}
			for name, path := range extraTables {
				paths[name] = path
			}

			for name, path := range paths {
				table, err := set.Table(name)
				if err != nil {
					return a.userError(err, "main.report")
				}
				records, err := a.readRecords(path, table.Schema().Columns)
				if err != nil {
					return a.userError(err, "main.report")
				}
				if err := table.ReplaceRecords(records); err != nil {
					return a.userError(fmt.Errorf("%s: %w", path, err), "main.report")
				}
			}

			var prediction *predict.Prediction
			switch {
			case flowsPath != "":
				if prediction, err = a.runForecast(cmd, flowsPath, a.conf.API.DiscountRate); err != nil {
					return err
				}
			case predictionPath != "":
				if prediction, err = readPrediction(predictionPath); err != nil {
					return err
				}
			}

			form := forms.NewLossForm(set, a.client(), a.logger)
			form.SetPrediction(prediction)
			if chartPath != "" {
				image, err := os.ReadFile(chartPath)
				if err != nil {
					return err
				}
				form.SetChart(base64.StdEncoding.EncodeToString(image))
			}

			pdf, err := form.Generate(cmd.Context())
			if err != nil {
				return a.userError(err, "main.report")
			}

			if outPath == "" {
				outPath = fmt.Sprintf("loss-report-%s.pdf", uuid.NewString())
			}
			if err := os.WriteFile(outPath, pdf, 0644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return err
		},
	}

	// Flags are declared before the configuration is loaded, so only the
	// built-in tables get one of their own.
	for _, schema := range items.DefaultSchemas() {
		path := new(string)
		tablePaths[schema.Name] = path
		cmd.Flags().StringVar(path, schema.Name, "", fmt.Sprintf("%s table file (.csv, .xlsx)", schema.Title))
	}
	cmd.Flags().StringToStringVar(&extraTables, "table", nil, "table file by table name, for configured tables (name=path)")
	cmd.Flags().StringVar(&flowsPath, "flows", "", "cash-flow file to forecast before rendering")
	cmd.Flags().StringVar(&predictionPath, "prediction", "", "forecast JSON file")
	cmd.Flags().StringVar(&chartPath, "chart", "", "chart image to embed")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output PDF path (default loss-report-<id>.pdf)")
	return cmd
}

func readPrediction(path string) (*predict.Prediction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var prediction predict.Prediction
	if err := json.Unmarshal(data, &prediction); err != nil {
		return nil, fmt.Errorf("failed to decode prediction %s: %w", path, err)
	}
	return &prediction, nil
}
