// Package constants provides shared constants for the agriculture-losses application.
package constants

// DateLayout is the layout of a fully entered date, DD.MM.YYYY.
const DateLayout = "02.01.2006"

// DateSeparator separates the day, month and year groups of a date.
const DateSeparator = "."

// Input policy defaults
const (
	// DefaultMaskMinYear is the lowest year the date mask lets a user type
	DefaultMaskMinYear = 1900

	// DefaultMinYear is the lowest year accepted when validating a date
	DefaultMinYear = 2000

	// DefaultYearsAhead is how many years past the current one a valid date may reach
	DefaultYearsAhead = 5

	// DefaultMinDistinctYears is the number of distinct years a DCF submission must span
	DefaultMinDistinctYears = 2

	// DefaultDiscountRate is the discount rate sent with a prediction request
	DefaultDiscountRate = 0.1

	// MaxDay and MaxMonth bound the masked day and month groups
	MaxDay   = 31
	MaxMonth = 12
)

// Financial constants
const (
	// CurrencySymbol is appended to formatted amounts
	CurrencySymbol = "грн"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "agriloss.yaml"

	// XDGConfigFile is the configuration path relative to the XDG config home
	XDGConfigFile = "agriloss/config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. AGRILOSS_API_BASEURL
	EnvPrefix = "AGRILOSS"
)

// Prediction API defaults
const (
	// DefaultAPIBaseURL is the hosted prediction service
	DefaultAPIBaseURL = "https://agriculture-losses-1llp.onrender.com"

	// PredictPath is the DCF prediction endpoint
	PredictPath = "/predict"

	// GeneratePDFPath is the report generation endpoint
	GeneratePDFPath = "/generate-pdf"

	// DefaultAPITimeoutSeconds covers the hosted service waking up from idle
	DefaultAPITimeoutSeconds = 60
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for CSV/XLSX files (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// RequestIDHeader carries the per-request identifier
	RequestIDHeader = "X-Request-ID"
)
