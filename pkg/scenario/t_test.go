package scenario

import (
	"context"
	"testing"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/dataprovider"
	"github.com/devicelab-dev/shopflow/pkg/session/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestT_Steps(t *testing.T) {
	var seen []core.StepResult
	st := newT(mock.New(), OnStep(func(s core.StepResult) { seen = append(seen, s) }))

	st.Step(1, "Opening Home Page")
	st.Info("hello %s", "there")
	st.Warn("careful")
	assert.True(t, st.Check(true, "ok", "bad"))
	assert.False(t, st.Check(false, "ok", "bad"))

	steps := st.Steps()
	require.Len(t, steps, 5)
	assert.Equal(t, "Step 1: Opening Home Page", steps[0].Message)
	assert.Equal(t, core.LevelInfo, steps[1].Level)
	assert.Equal(t, core.LevelWarning, steps[2].Level)
	assert.Equal(t, core.LevelPass, steps[3].Level)
	assert.Equal(t, core.LevelFail, steps[4].Level)
	assert.Equal(t, 4, steps[4].Index)
	assert.Equal(t, steps, seen)
	assert.True(t, st.Failed())
}

func TestT_Require(t *testing.T) {
	st := newT(mock.New())

	assert.NoError(t, st.Require(true, "fine"))
	assert.False(t, st.Failed())

	err := st.Require(false, "item %s missing", "1")
	assert.ErrorIs(t, err, core.ErrAssertion)
	assert.EqualError(t, err, "item 1 missing")
	assert.True(t, st.Failed())
}

func TestT_Skip(t *testing.T) {
	st := newT(mock.New())
	st.Skip("no data")
	assert.True(t, st.Skipped())
	assert.False(t, st.Failed())
}

func TestT_Screenshot(t *testing.T) {
	s := mock.New()
	var last core.StepResult
	st := newT(s, OnStep(func(r core.StepResult) { last = r }))
	st.Step(1, "x")

	st.Screenshot("cart")

	require.Len(t, st.Attachments(), 1)
	assert.Equal(t, "step-001-cart.png", st.Attachments()[0].Path)
	assert.Equal(t, "step-001-cart.png", st.Steps()[1].Screenshot)
	assert.Equal(t, "step-001-cart.png", last.Screenshot)
	assert.Equal(t, 1, s.Calls("Screenshot"))
}

func TestT_Params(t *testing.T) {
	st := newT(mock.New(),
		WithParams(map[string]string{"email": "a@x.com", "product": "1"}),
		WithParams(map[string]string{"product": "3"}),
	)
	assert.Equal(t, "a@x.com", st.Param("email"))
	assert.Equal(t, "3", st.Param("product"))
	assert.Equal(t, "", st.Param("missing"))
	assert.Equal(t, 3, productParam(st, "product", 1))
}

func TestProductParam_Invalid(t *testing.T) {
	st := newT(mock.New(), WithParams(map[string]string{"product": "abc"}))
	assert.Equal(t, 2, productParam(st, "product", 2))
	assert.Equal(t, core.LevelWarning, st.Steps()[0].Level)
}

func TestT_Row(t *testing.T) {
	st := newT(mock.New())
	_, ok := st.Row()
	assert.False(t, ok)

	row := dataprovider.NewRow(dataprovider.SheetLogin, 2, []string{"TC1", "a@x.com", "pw", "Pass"})
	st = newT(mock.New(), WithRow(row))
	got, ok := st.Row()
	require.True(t, ok)
	assert.Equal(t, "TC1", got.CaseID())
}

func TestT_WaitForURL(t *testing.T) {
	s := mock.New()
	s.URL = "https://automationexercise.com/view_cart"
	st := newT(s)

	url, err := st.WaitForURL("checkout", "view_cart")
	require.NoError(t, err)
	assert.Equal(t, s.URL, url)

	_, err = st.WaitForURL("payment")
	assert.True(t, core.IsKind(err, core.KindTimeout))
}

func TestT_WaitForHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := NewT(ctx, testEnv(mock.New()))

	err := st.WaitFor(func(context.Context) (bool, error) { return false, nil })
	assert.Error(t, err)
}
