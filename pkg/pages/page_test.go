package pages

import (
	"context"
	"errors"
	"testing"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/session/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpError(t *testing.T) {
	err := opError("AddProductToCart", "product 3", core.ErrWaitTimeout)

	var op *OpError
	require.True(t, errors.As(err, &op))
	assert.Equal(t, "AddProductToCart", op.Op)
	assert.Equal(t, core.KindTimeout, op.Kind())
	assert.True(t, errors.Is(err, core.ErrWaitTimeout))
	assert.Contains(t, err.Error(), "AddProductToCart product 3")

	assert.NoError(t, opError("X", "y", nil))
}

func TestOrDefault(t *testing.T) {
	log := zap.NewNop()
	assert.Equal(t, 7, orDefault(log, "op", 0)(7, nil))
	assert.Equal(t, 0, orDefault(log, "op", 0)(7, core.ErrSession))
	assert.Equal(t, "", orDefault(log, "op", "")("x", core.ErrElementNotFound))
}

func TestMaskCard(t *testing.T) {
	assert.Equal(t, "************0366", maskCard("4532015112830366"))
	assert.Equal(t, "***", maskCard("123"))
}

func TestNewSet(t *testing.T) {
	set := NewSet(testEnv(mock.New()))
	require.NotNil(t, set.Home)
	require.NotNil(t, set.Login)
	require.NotNil(t, set.Signup)
	require.NotNil(t, set.Products)
	require.NotNil(t, set.Cart)
	require.NotNil(t, set.Checkout)
	assert.Equal(t, StageCart, set.NewCheckoutFlow().Stage())
}

func TestOpen_NavigatesAndWaitsForReady(t *testing.T) {
	s := mock.New()
	home := NewHome(testEnv(s))

	require.NoError(t, home.Open(context.Background()))
	assert.Equal(t, "https://automationexercise.com/", s.URL)
	assert.Equal(t, 1, s.Calls("MaximizeWindow"))
}

func TestOpen_NeverReady(t *testing.T) {
	s := mock.New()
	s.OnScript = func(*mock.Session, string, []interface{}) (interface{}, error) { return "loading", nil }

	err := NewCart(testEnv(s)).Open(context.Background())
	var op *OpError
	require.ErrorAs(t, err, &op)
	assert.Equal(t, "OpenCart", op.Op)
	assert.Equal(t, core.KindTimeout, op.Kind())
}
