// Package dataprovider reads scenario rows from the test data workbook and
// writes PASS/FAIL outcomes back into it.
package dataprovider

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Sheet names with a fixed column schema.
const (
	SheetRegistrations = "Registrations"
	SheetLogin         = "Login"
)

// Column schemas. Column 0 is always the case id.
var (
	RegistrationColumns = []string{
		"testCaseName", "title", "name", "email", "password", "dob",
		"firstName", "lastName", "company", "address1", "address2",
		"country", "state", "city", "zipcode", "mobile", "expectedResult",
	}
	LoginColumns = []string{"testCaseName", "email", "password", "expectedResult"}
)

// Substituted when the workbook or sheet cannot be read.
var defaultRows = map[string][]string{
	SheetRegistrations: {
		"DefaultName", "", "", "default@example.com", "password", "01-01-1990",
		"First", "Last", "Company", "Address1", "Address2", "United States",
		"State", "City", "12345", "1234567890", "Default",
	},
	SheetLogin: {"DefaultName", "default@example.com", "password", "Default"},
}

// Row is one data row keyed by column name. Rows are immutable once read.
type Row struct {
	Sheet  string
	Index  int // 1-based spreadsheet row number; 0 for a substituted row
	values map[string]string
}

// CaseID returns the value of column 0.
func (r Row) CaseID() string { return r.values[schemaFor(r.Sheet, nil)[0]] }

// Get returns a column value, or "" when the column is absent.
func (r Row) Get(column string) string { return r.values[column] }

// Expected returns the expectedResult column.
func (r Row) Expected() string { return r.values["expectedResult"] }

// Default reports whether the row was substituted for a missing source.
func (r Row) Default() bool { return r.Index == 0 }

// Values returns a copy of the row's columns.
func (r Row) Values() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// NewRow builds a row from positional cells using the sheet's schema.
func NewRow(sheet string, index int, cells []string) Row {
	cols := schemaFor(sheet, nil)
	values := make(map[string]string, len(cols))
	for i, col := range cols {
		values[col] = cell(cells, i)
	}
	return Row{Sheet: sheet, Index: index, values: values}
}

// Provider reads rows from one workbook.
type Provider struct {
	path string
	log  *zap.Logger
}

// New creates a Provider for the workbook at path.
func New(path string, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{path: path, log: log}
}

// Path returns the workbook path.
func (p *Provider) Path() string { return p.path }

// Rows reads a sheet. The header row and rows with a blank case id are
// skipped.
//
// When the workbook or sheet is missing, Rows logs a warning and returns one
// default row for the known sheets together with an error wrapping
// core.ErrDataSourceMissing. Callers that want to proceed use the rows and
// ignore the error.
func (p *Provider) Rows(sheet string) ([]Row, error) {
	rows, err := p.read(sheet)
	if err == nil {
		return rows, nil
	}
	if !errors.Is(err, core.ErrDataSourceMissing) {
		return nil, err
	}

	p.log.Warn("data source missing, using default row",
		zap.String("workbook", p.path),
		zap.String("sheet", sheet),
		zap.Error(err))

	cells, ok := defaultRows[canonical(sheet)]
	if !ok {
		return nil, err
	}
	return []Row{NewRow(canonical(sheet), 0, cells)}, err
}

// Sheets lists the workbook's sheets.
func (p *Provider) Sheets() ([]string, error) {
	f, err := p.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func (p *Provider) open() (*excelize.File, error) {
	if _, err := os.Stat(p.path); err != nil {
		return nil, core.ErrDataSourceMissing.WithMessagef("workbook %s", p.path).WithCause(err)
	}
	f, err := excelize.OpenFile(p.path)
	if err != nil {
		return nil, core.ErrDataSourceMissing.WithMessagef("open workbook %s", p.path).WithCause(err)
	}
	return f, nil
}

func (p *Provider) read(sheet string) ([]Row, error) {
	f, err := p.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name, ok := findSheet(f, sheet)
	if !ok {
		return nil, core.ErrDataSourceMissing.WithMessagef("sheet %q not found in %s", sheet, p.path)
	}
	raw, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", name, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	cols := schemaFor(sheet, raw[0])
	var rows []Row
	for i, cells := range raw[1:] {
		if strings.TrimSpace(cell(cells, 0)) == "" {
			continue
		}
		values := make(map[string]string, len(cols))
		for j, col := range cols {
			values[col] = cell(cells, j)
		}
		rows = append(rows, Row{Sheet: canonical(sheet), Index: i + 2, values: values})
	}

	p.log.Debug("rows loaded", zap.String("sheet", name), zap.Int("rows", len(rows)))
	return rows, nil
}

// findSheet matches sheet names case-insensitively.
func findSheet(f *excelize.File, sheet string) (string, bool) {
	for _, name := range f.GetSheetList() {
		if strings.EqualFold(name, sheet) {
			return name, true
		}
	}
	return "", false
}

func canonical(sheet string) string {
	switch {
	case strings.EqualFold(sheet, SheetRegistrations):
		return SheetRegistrations
	case strings.EqualFold(sheet, SheetLogin):
		return SheetLogin
	}
	return sheet
}

// schemaFor returns the fixed schema of a known sheet, or the header row
// for any other sheet.
func schemaFor(sheet string, header []string) []string {
	switch canonical(sheet) {
	case SheetRegistrations:
		return RegistrationColumns
	case SheetLogin:
		return LoginColumns
	}
	if len(header) == 0 {
		return []string{"testCaseName"}
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}
	cols[0] = "testCaseName"
	return cols
}

func cell(cells []string, i int) string {
	if i < len(cells) {
		return strings.TrimSpace(cells[i])
	}
	return ""
}
