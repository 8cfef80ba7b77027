package executor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/dataprovider"
	"github.com/devicelab-dev/shopflow/pkg/scenario"
	"github.com/devicelab-dev/shopflow/pkg/suite"
)

type fakeRows struct {
	rows  map[string][]dataprovider.Row
	err   error
	reads int
}

func (f *fakeRows) Rows(sheet string) ([]dataprovider.Row, error) {
	f.reads++
	return f.rows[sheet], f.err
}

func loginRow(index int, caseID string) dataprovider.Row {
	return dataprovider.NewRow(dataprovider.SheetLogin, index, []string{caseID, caseID + "@example.com", "pw", "pass"})
}

func TestPlan(t *testing.T) {
	plain := scenario.Scenario{ID: "CART-01"}
	driven := scenario.Scenario{ID: "LOGIN-03", Sheet: dataprovider.SheetLogin}
	src := &fakeRows{rows: map[string][]dataprovider.Row{
		dataprovider.SheetLogin: {loginRow(2, "TC_1"), loginRow(3, "TC_2")},
	}}

	jobs, err := Plan([]suite.Selection{
		{Scenario: plain, Params: map[string]string{"product": "1"}},
		{Scenario: driven, Sheet: dataprovider.SheetLogin},
	}, src, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	assert.Equal(t, "CART-01", jobs[0].Label())
	assert.Equal(t, "1", jobs[0].Params["product"])
	assert.Nil(t, jobs[0].Row)
	assert.Equal(t, "LOGIN-03 [TC_1]", jobs[1].Label())
	assert.Equal(t, "TC_2", jobs[2].CaseID())
	assert.NotSame(t, jobs[1].Row, jobs[2].Row)

	p := jobs[1].planned()
	assert.Equal(t, "TC_1", p.CaseID)
	assert.Equal(t, dataprovider.SheetLogin, p.Sheet)
}

func TestPlanReadsSheetOnce(t *testing.T) {
	driven := scenario.Scenario{ID: "LOGIN-03", Sheet: dataprovider.SheetLogin}
	src := &fakeRows{rows: map[string][]dataprovider.Row{dataprovider.SheetLogin: {loginRow(2, "TC_1")}}}

	jobs, err := Plan([]suite.Selection{
		{Scenario: driven, Sheet: dataprovider.SheetLogin},
		{Scenario: scenario.Scenario{ID: "LOGIN-04", Sheet: dataprovider.SheetLogin}, Sheet: dataprovider.SheetLogin},
	}, src, nil)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
	assert.Equal(t, 1, src.reads)
}

func TestPlanDefaultRow(t *testing.T) {
	driven := scenario.Scenario{ID: "LOGIN-03", Sheet: dataprovider.SheetLogin}
	src := &fakeRows{
		rows: map[string][]dataprovider.Row{dataprovider.SheetLogin: {loginRow(0, "DefaultName")}},
		err:  core.ErrDataSourceMissing.WithMessage("workbook not found"),
	}

	jobs, err := Plan([]suite.Selection{{Scenario: driven, Sheet: dataprovider.SheetLogin}}, src, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].Row.Default())
}

func TestPlanErrors(t *testing.T) {
	driven := scenario.Scenario{ID: "LOGIN-03", Sheet: dataprovider.SheetLogin}
	sel := []suite.Selection{{Scenario: driven, Sheet: dataprovider.SheetLogin}}

	_, err := Plan(sel, nil, nil)
	assert.True(t, errors.Is(err, core.ErrDataSourceMissing))

	_, err = Plan(sel, &fakeRows{err: errors.New("corrupt workbook")}, nil)
	assert.ErrorContains(t, err, "corrupt workbook")

	_, err = Plan(sel, &fakeRows{err: core.ErrDataSourceMissing}, nil)
	assert.Error(t, err, "missing source without a default row")
}
