package executor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/dataprovider"
	"github.com/devicelab-dev/shopflow/pkg/report"
	"github.com/devicelab-dev/shopflow/pkg/scenario"
	"github.com/devicelab-dev/shopflow/pkg/suite"
)

// Job is one planned execution: a scenario, bound to a data row when the
// scenario is data-driven.
type Job struct {
	Scenario scenario.Scenario
	Sheet    string
	Params   map[string]string
	Row      *dataprovider.Row
}

// CaseID returns the data row's case id, or "" for a plain job.
func (j Job) CaseID() string {
	if j.Row == nil {
		return ""
	}
	return j.Row.CaseID()
}

// Label is the display label: CART-03, or LOGIN-03 [TC_LOGIN_02].
func (j Job) Label() string {
	if id := j.CaseID(); id != "" {
		return j.Scenario.ID + " [" + id + "]"
	}
	return j.Scenario.ID
}

func (j Job) planned() report.Planned {
	return report.Planned{
		ScenarioID: j.Scenario.ID,
		Name:       j.Scenario.Name,
		Objective:  j.Scenario.Objective,
		CaseID:     j.CaseID(),
		Sheet:      j.Sheet,
		Params:     j.Params,
		Tags:       j.Scenario.Tags,
	}
}

// RowSource yields the data rows of a sheet.
type RowSource interface {
	Rows(sheet string) ([]dataprovider.Row, error)
}

// Plan expands selections into jobs. A data-driven selection becomes one
// job per row. When the workbook or sheet is missing the source's default
// row is used and a warning is logged.
func Plan(selections []suite.Selection, rows RowSource, log *zap.Logger) ([]Job, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var jobs []Job
	cache := map[string][]dataprovider.Row{}
	for _, sel := range selections {
		if sel.Sheet == "" {
			jobs = append(jobs, Job{Scenario: sel.Scenario, Params: sel.Params})
			continue
		}
		if rows == nil {
			return nil, core.ErrDataSourceMissing.WithMessagef("%s needs sheet %q but no workbook is configured", sel.Scenario.ID, sel.Sheet)
		}

		sheetRows, ok := cache[sel.Sheet]
		if !ok {
			var err error
			sheetRows, err = rows.Rows(sel.Sheet)
			switch {
			case err == nil:
			case errors.Is(err, core.ErrDataSourceMissing) && len(sheetRows) > 0:
				log.Warn("running with default data row",
					zap.String("scenario", sel.Scenario.ID),
					zap.String("sheet", sel.Sheet),
					zap.Error(err))
			default:
				return nil, fmt.Errorf("rows for %s: %w", sel.Scenario.ID, err)
			}
			cache[sel.Sheet] = sheetRows
		}
		if len(sheetRows) == 0 {
			log.Warn("sheet has no rows", zap.String("scenario", sel.Scenario.ID), zap.String("sheet", sel.Sheet))
		}

		for i := range sheetRows {
			row := sheetRows[i]
			jobs = append(jobs, Job{Scenario: sel.Scenario, Sheet: sel.Sheet, Params: sel.Params, Row: &row})
		}
	}
	return jobs, nil
}
