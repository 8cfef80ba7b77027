package dataprovider

import (
	"fmt"
	"strings"
	"sync"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Outcome values written to the Result column.
const (
	ResultPass = "PASS"
	ResultFail = "FAIL"

	resultHeader = "Result"
)

var resultFills = map[string]string{
	ResultPass: "90EE90",
	ResultFail: "FF0000",
}

// Outcome is one case id and its result.
type Outcome struct {
	CaseID string
	Result string
}

// ResultWriter updates the Result column of a workbook. It is safe for
// concurrent use; each write opens, updates and saves the workbook.
type ResultWriter struct {
	path string
	log  *zap.Logger
	mu   sync.Mutex
}

// NewResultWriter creates a writer for the workbook at path.
func NewResultWriter(path string, log *zap.Logger) *ResultWriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResultWriter{path: path, log: log}
}

// Write records result for the row whose column 0 equals caseID. The Result
// header is appended when the sheet has none. PASS and FAIL cells are filled
// green and red; other values are written unstyled.
func (w *ResultWriter) Write(sheet, caseID, result string) error {
	return w.WriteAll(sheet, []Outcome{{CaseID: caseID, Result: result}})
}

// WriteAll records several outcomes with a single save.
func (w *ResultWriter) WriteAll(sheet string, outcomes []Outcome) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return core.ErrDataSourceMissing.WithMessagef("open workbook %s", w.path).WithCause(err)
	}
	defer f.Close()

	name, ok := findSheet(f, sheet)
	if !ok {
		return core.ErrDataSourceMissing.WithMessagef("sheet %q not found in %s", sheet, w.path)
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", name, err)
	}
	if len(rows) == 0 {
		return core.ErrDataSourceMissing.WithMessagef("sheet %q has no header row", name)
	}

	col, err := resultColumn(f, name, rows[0])
	if err != nil {
		return err
	}

	var missing []string
	for _, o := range outcomes {
		rowNum := findCase(rows, o.CaseID)
		if rowNum == 0 {
			missing = append(missing, o.CaseID)
			continue
		}
		if err := w.setResult(f, name, col, rowNum, o.Result); err != nil {
			return err
		}
		w.log.Info("result written",
			zap.String("sheet", name),
			zap.String("case", o.CaseID),
			zap.String("result", o.Result))
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	if len(missing) > 0 {
		return core.ErrInvalidArgument.WithMessagef("case ids not found in sheet %q: %s", name, strings.Join(missing, ", "))
	}
	return nil
}

// resultColumn returns the 1-based Result column, creating the header cell
// after the last header when absent.
func resultColumn(f *excelize.File, sheet string, header []string) (int, error) {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), resultHeader) {
			return i + 1, nil
		}
	}
	col := len(header) + 1
	ref, err := excelize.CoordinatesToCellName(col, 1)
	if err != nil {
		return 0, err
	}
	if err := f.SetCellValue(sheet, ref, resultHeader); err != nil {
		return 0, err
	}
	return col, nil
}

// findCase returns the 1-based row number of caseID, or 0.
func findCase(rows [][]string, caseID string) int {
	for i := 1; i < len(rows); i++ {
		if cell(rows[i], 0) == caseID {
			return i + 1
		}
	}
	return 0
}

func (w *ResultWriter) setResult(f *excelize.File, sheet string, col, row int, result string) error {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, ref, result); err != nil {
		return err
	}

	color, ok := resultFills[strings.ToUpper(result)]
	if !ok {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, ref, ref, style)
}

// ResultFor maps a scenario status onto PASS or FAIL.
func ResultFor(status core.StepStatus) string {
	if status.IsSuccess() {
		return ResultPass
	}
	return ResultFail
}
