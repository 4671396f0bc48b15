// Package i18n holds the user-facing message catalog. Messages are keyed by
// their English text and translated into Ukrainian, the language of the
// farmers using the forms.
package i18n

import (
	"errors"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys shared by the validation and accumulation packages.
const (
	KeyInvalidDate       = "Invalid date format (DD.MM.YYYY)"
	KeyInvalidAmount     = "Enter a non-negative number"
	KeyFillPreviousRow   = "Please fill in the previous row"
	KeyTooFewYears       = "Please enter data for at least %d different years"
	KeyInvalidRows       = "Please fix the highlighted rows before submitting"
	KeyAllFieldsRequired = "All fields must be filled in."
	KeyFieldNotNumber    = "Field %q must be a number."
	KeyUploadFailed      = "Could not load the file: %s"
	KeyMissingColumn     = "Column %q was not found in the file"
	KeyAmbiguousColumn   = "Column %q matches more than one header in the file"
	KeyShortRecord       = "Row %d has %d cells, expected %d"
	KeyEmptyFile         = "The file has no data rows"
	KeyForecastFailed    = "Forecast request failed"
	KeyReportFailed      = "Could not create the PDF document"
	KeyBusy              = "A request is already being processed"
	KeyNoRows            = "Add at least one row"
	KeyUnknownTable      = "Unknown table %q"
	KeyServiceError      = "Error: %s"
)

var (
	// Supported lists the languages with a full catalog, English first.
	Supported = []language.Tag{language.English, language.Ukrainian}

	matcher  = language.NewMatcher(Supported)
	register sync.Once
)

var ukrainian = map[string]string{
	KeyInvalidDate:       "Невірний формат дати (ДД.ММ.РРРР)",
	KeyInvalidAmount:     "Введіть додатнє число",
	KeyFillPreviousRow:   "Будь ласка, заповніть попередній рядок",
	KeyTooFewYears:       "Будь ласка, введіть дані мінімум за %d різні роки",
	KeyInvalidRows:       "Будь ласка, виправте позначені рядки перед збереженням",
	KeyAllFieldsRequired: "Всі поля повинні бути заповнені.",
	KeyFieldNotNumber:    "Поле %q повинно бути числом.",
	KeyUploadFailed:      "Не вдалося завантажити файл: %s",
	KeyMissingColumn:     "У файлі не знайдено стовпець %q",
	KeyAmbiguousColumn:   "Стовпцю %q відповідає кілька заголовків у файлі",
	KeyShortRecord:       "Рядок %d містить %d клітинок, очікувалось %d",
	KeyEmptyFile:         "Файл не містить рядків з даними",
	KeyForecastFailed:    "Помилка при обрахунку прогнозу",
	KeyReportFailed:      "Не вдалося створити PDF документ",
	KeyBusy:              "Запит уже обробляється",
	KeyNoRows:            "Додайте хоча б один рядок",
	KeyUnknownTable:      "Невідома таблиця %q",
	KeyServiceError:      "Помилка: %s",
}

// Register loads the catalog into the default message catalog. It runs once
// per process no matter how many times it is called.
func Register() {
	register.Do(func() {
		for key, text := range ukrainian {
			// SetString only fails on a malformed tag.
			_ = message.SetString(language.Ukrainian, key, text)
		}
	})
}

// Match picks the best supported language for an Accept-Language header
// value, falling back to English.
func Match(acceptLanguage string) language.Tag {
	if acceptLanguage == "" {
		return language.English
	}
	_, idx := language.MatchStrings(matcher, acceptLanguage)
	return Supported[idx]
}

// Msg is a user-facing message kept as a catalog key plus arguments so it
// can be rendered in the caller's language.
type Msg struct {
	Key  string
	Args []interface{}
}

// New builds a Msg.
func New(key string, args ...interface{}) Msg {
	return Msg{Key: key, Args: args}
}

// In renders the message in the given language.
func (m Msg) In(tag language.Tag) string {
	Register()
	return message.NewPrinter(tag).Sprintf(m.Key, m.Args...)
}

// String renders the message in English.
func (m Msg) String() string {
	return m.In(language.English)
}

// Error pairs an error with the message shown to the user for it.
type Error struct {
	Msg Msg
	Err error
}

// Errorf wraps err with a catalog message.
func Errorf(err error, key string, args ...interface{}) *Error {
	return &Error{Msg: New(key, args...), Err: err}
}

func (e *Error) Error() string {
	return e.Msg.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MessageOf returns the user-facing message carried anywhere in err's chain.
func MessageOf(err error) (Msg, bool) {
	var localized *Error
	if errors.As(err, &localized) {
		return localized.Msg, true
	}
	return Msg{}, false
}
