// Package records loads call sheets from CSV into validated records
// with stable indices.
package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/script"
)

var requiredColumns = []string{"name", "company_name", "salary", "phone_number"}

// Parse reads a call sheet. The header must contain the four required
// columns; extra columns are ignored. Record indices follow row order.
// Rows with blank required fields are kept: per-record validation
// happens at planning time so one bad row cannot sink a batch.
func Parse(r io.Reader) ([]script.Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fault.New(fault.Validation, "csv is empty")
	}
	if err != nil {
		return nil, fault.Wrap(fault.Validation, err, "read csv header")
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fault.New(fault.Validation, "missing required columns: %s", strings.Join(missing, ", "))
	}

	var out []script.Record
	for index := 0; ; index++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fault.Wrap(fault.Validation, err, "read csv row %d", index)
		}
		out = append(out, script.Record{
			Index:       index,
			Name:        field(row, columns["name"]),
			CompanyName: field(row, columns["company_name"]),
			Salary:      field(row, columns["salary"]),
			PhoneNumber: field(row, columns["phone_number"]),
		})
	}
	return out, nil
}

// ParseFile reads a call sheet from disk.
func ParseFile(path string) ([]script.Record, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".csv") {
		return nil, fault.New(fault.Validation, "file must be a CSV: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fault.New(fault.Validation, "csv file not found: %s", path)
		}
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
