package spreadsheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"import-claim-service/internal/constants"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"
)

// SpreadsheetAdapter разбирает загруженный оператором CSV-файл в поток
// RawListing. Строка заголовка обязательна; порядок колонок свободный,
// сопоставление идет по именам. Битая строка (не то число колонок,
// нечисловое обязательное поле и т.д.) отдается в поток как RowError
// и НЕ останавливает чтение - это определяющая политика частичных
// сбоев всего конвейера импорта.
type SpreadsheetAdapter struct {
	reader   io.Reader
	filename string
}

func NewSpreadsheetAdapter(reader io.Reader, filename string) *SpreadsheetAdapter {
	return &SpreadsheetAdapter{
		reader:   reader,
		filename: filename,
	}
}

func (a *SpreadsheetAdapter) Metadata() port.SourceMetadata {
	return port.SourceMetadata{
		Kind: domain.SourceSpreadsheet,
		Name: a.filename,
	}
}

func (a *SpreadsheetAdapter) StreamRecords(ctx context.Context, yield func(rec domain.RawListing, rowErr *domain.RowError) bool) error {
	csvReader := csv.NewReader(a.reader)
	// Число колонок проверяем сами, чтобы ошибка стала RowError,
	// а не обрывом потока.
	csvReader.FieldsPerRecord = -1

	// Проблемы заголовка - ошибка оператора, а не сбой конвейера:
	// типизированная ValidationError доходит до HTTP-слоя как 400.
	header, err := csvReader.Read()
	if err != nil {
		return fmt.Errorf("spreadsheet adapter: %w",
			domain.NewValidationError("header", fmt.Sprintf("failed to read header row: %v", err)))
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))
	}

	if err := requireColumns(columns); err != nil {
		return fmt.Errorf("spreadsheet adapter: %w", err)
	}

	row := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		values, readErr := csvReader.Read()
		if readErr == io.EOF {
			return nil
		}
		row++

		if readErr != nil {
			rowErr := &domain.RowError{Row: row, Message: fmt.Sprintf("malformed row: %v", readErr)}
			if !yield(domain.RawListing{}, rowErr) {
				return nil
			}
			continue
		}

		if len(values) != len(columns) {
			rowErr := &domain.RowError{
				Row:     row,
				Message: fmt.Sprintf("expected %d columns, got %d", len(columns), len(values)),
			}
			if !yield(domain.RawListing{}, rowErr) {
				return nil
			}
			continue
		}

		fields := make(map[string]string, len(columns))
		for i, col := range columns {
			fields[col] = strings.TrimSpace(values[i])
		}

		rec := domain.RawListing{
			SourceKind: domain.SourceSpreadsheet,
			Row:        row,
			Fields:     fields,
		}
		if !yield(rec, nil) {
			return nil
		}
	}
}

// requireColumns проверяет, что заголовок содержит минимум address, city, price.
func requireColumns(columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	required := []string{constants.FieldAddress, constants.FieldCity, constants.FieldPrice}
	var missing []string
	for _, r := range required {
		if !present[r] {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return domain.NewValidationError("header",
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// Template возвращает содержимое скачиваемого CSV-шаблона с одной
// строкой-примером.
func Template() string {
	var b strings.Builder
	w := csv.NewWriter(&b)

	_ = w.Write(constants.SpreadsheetColumns)
	_ = w.Write(exampleRow())
	w.Flush()

	return b.String()
}

func exampleRow() []string {
	example := map[string]string{
		constants.FieldAddress:      "123 Main St",
		constants.FieldCity:         "Springfield",
		constants.FieldPrice:        "250000",
		constants.FieldState:        "MI",
		constants.FieldZipCode:      "48001",
		constants.FieldBedrooms:     "3",
		constants.FieldBathrooms:    "2.5",
		constants.FieldSqft:         "1850",
		constants.FieldPropertyType: "house",
		constants.FieldYearBuilt:    strconv.Itoa(1998),
		constants.FieldLotSize:      "0.25",
		constants.FieldOwnerName:    "John Doe",
		constants.FieldOwnerPhone:   "555-0100",
		constants.FieldOwnerEmail:   "john@example.com",
		constants.FieldOwnerAddress: "123 Main St, Springfield",
		constants.FieldDescription:  "Well-maintained family home",
	}

	row := make([]string, len(constants.SpreadsheetColumns))
	for i, col := range constants.SpreadsheetColumns {
		row[i] = example[col]
	}
	return row
}
