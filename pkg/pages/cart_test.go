package pages

import (
	"context"
	"testing"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/session"
	"github.com/devicelab-dev/shopflow/pkg/session/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsItemInCart_Strict(t *testing.T) {
	s := mock.New()
	addCartRow(s, "2", "1", "Rs. 400")
	cart := NewCart(testEnv(s))
	ctx := context.Background()

	assert.True(t, cart.IsItemInCart(ctx, "2"))
	assert.False(t, cart.IsItemInCart(ctx, "1"), "a row for another product must not count")
	assert.False(t, cart.IsItemInCart(ctx, "1' or '1'='1"))
	assert.Equal(t, 1, cart.ItemCount(ctx))
}

func TestCartQueries(t *testing.T) {
	s := mock.New()
	addCartRow(s, "1", "1", "Rs. 500")
	cart := NewCart(testEnv(s))
	ctx := context.Background()

	assert.Equal(t, 1, cart.ProductQuantity(ctx, "1"))
	assert.True(t, cart.VerifyQuantity(ctx, "1", 1))
	assert.Equal(t, "Rs. 500", cart.ProductPrice(ctx, "1"))
	assert.True(t, cart.PriceMatches(ctx, "1", "Rs. 500"))
	assert.False(t, cart.PriceMatches(ctx, "1", "Rs. 400"))
	assert.Equal(t, "Rs. 500", cart.ProductTotal(ctx, "1"))

	// Defaults for absent data
	assert.Equal(t, 0, cart.ProductQuantity(ctx, "9"))
	assert.Equal(t, "", cart.ProductPrice(ctx, "9"))
	assert.Equal(t, "", cart.ProductTotal(ctx, "9"))
	assert.Equal(t, "", cart.Total(ctx))
	assert.False(t, cart.IsUserLoggedIn(ctx))
}

func TestCartQueries_Idempotent(t *testing.T) {
	s := mock.New()
	addCartRow(s, "3", "2", "Rs. 1000")
	cart := NewCart(testEnv(s))
	ctx := context.Background()

	assert.Equal(t, cart.IsItemInCart(ctx, "3"), cart.IsItemInCart(ctx, "3"))
	assert.Equal(t, cart.ProductPrice(ctx, "3"), cart.ProductPrice(ctx, "3"))
	assert.Equal(t, cart.ProductQuantity(ctx, "3"), cart.ProductQuantity(ctx, "3"))
}

func TestProductQuantity_NonNumeric(t *testing.T) {
	s := mock.New()
	addCartRow(s, "4", "one", "Rs. 1")

	assert.Equal(t, 0, NewCart(testEnv(s)).ProductQuantity(context.Background(), "4"))
}

func TestRemoveItem_RowScopedFallback(t *testing.T) {
	s := mock.New()
	row := addCartRow(s, "5", "1", "Rs. 500")
	s.RegisterIn(row.row.ID, session.ByLinkText, "Delete", row.delete.ID)
	cart := NewCart(testEnv(s))

	require.NoError(t, cart.RemoveItem(context.Background(), "5"))
	assert.Equal(t, 1, s.Calls("Click:"+row.delete.ID))
	assert.False(t, cart.IsItemInCart(context.Background(), "5"))
}

func TestRemoveItem_IndexFallback(t *testing.T) {
	s := mock.New()
	other := s.Add(&mock.Node{Visible: true, Enabled: true, Attrs: map[string]string{"id": "row-a"}})
	s.Register(session.ByXPath, `//table[@id='cart_info_table']//tbody/tr`, other.ID)
	del := s.Add(&mock.Node{Visible: true, Enabled: true})
	del.OnClick = func(s *mock.Session) { s.Detach(other.ID) }
	s.RegisterIn(other.ID, session.ByXPath, `.//a[contains(@class,'cart_quantity_delete') or contains(@class,'delete')]`, del.ID)

	require.NoError(t, NewCart(testEnv(s)).RemoveItem(context.Background(), "1"))
	assert.Equal(t, 1, s.Calls("Click:"+del.ID))
}

func TestRemoveItem_NotInCart(t *testing.T) {
	s := mock.New()
	addCartRow(s, "1", "1", "Rs. 500")

	err := NewCart(testEnv(s)).RemoveItem(context.Background(), "8")
	var op *OpError
	require.ErrorAs(t, err, &op)
	assert.Equal(t, "RemoveItem", op.Op)
	assert.Equal(t, "product 8", op.Target)
	assert.Equal(t, core.KindNotFound, op.Kind())
}

func TestRemoveItem_EmptyCart(t *testing.T) {
	err := NewCart(testEnv(mock.New())).RemoveItem(context.Background(), "1")
	assert.True(t, core.IsKind(err, core.KindNotFound), "err = %v", err)
}

func TestRemoveItem_InvalidID(t *testing.T) {
	s := mock.New()
	err := NewCart(testEnv(s)).RemoveItem(context.Background(), "1']")
	assert.True(t, core.IsKind(err, core.KindInvalidArgument), "err = %v", err)
	assert.Equal(t, 0, s.Calls("FindElements"))
}

func TestVerifyItemRemoved_StillPresent(t *testing.T) {
	s := mock.New()
	addCartRow(s, "6", "1", "Rs. 500")

	err := NewCart(testEnv(s)).VerifyItemRemoved(context.Background(), "6")
	assert.True(t, core.IsKind(err, core.KindAssertion), "err = %v", err)
}

func TestUpdateQuantity_Unsupported(t *testing.T) {
	s := mock.New()
	addCartRow(s, "1", "1", "Rs. 500")

	err := NewCart(testEnv(s)).UpdateQuantity(context.Background(), "1", 3)
	var op *OpError
	require.ErrorAs(t, err, &op)
	assert.Equal(t, core.KindUnsupported, op.Kind())
}

func TestCheckoutModal(t *testing.T) {
	s := mock.New()
	cart := NewCart(testEnv(s))
	ctx := context.Background()

	assert.False(t, cart.IsCheckoutModalDisplayed(ctx))

	s.Visible(session.ByID, "checkoutModal", "")
	link := s.Visible(session.ByXPath, `//div[@id='checkoutModal']//a[@href='/login']`, "Register / Login")
	assert.True(t, cart.IsCheckoutModalDisplayed(ctx))
	require.NoError(t, cart.ClickRegisterLogin(ctx))
	assert.Equal(t, 1, s.Calls("Click:"+link.ID))
}
