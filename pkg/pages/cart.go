package pages

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/locator"
	"github.com/devicelab-dev/shopflow/pkg/session"
	"github.com/devicelab-dev/shopflow/pkg/wait"
	"go.uber.org/zap"
)

var (
	cartTable    = locator.Of("cart table", locator.ID("cart_info_table"))
	cartProceed  = locator.Of("proceed to checkout button", locator.XPath(`//a[contains(text(),'Proceed To Checkout')]`))
	cartTotal    = locator.Of("cart total", locator.XPath(`//td[contains(text(),'Total')]/following-sibling::td`))
	cartLogout   = locator.Of("logout link", locator.XPath(`//a[contains(text(),'Logout')]`))
	cartModal    = locator.Of("checkout modal", locator.ID("checkoutModal"))
	cartModalReg = locator.Of("register/login link", locator.XPath(`//div[@id='checkoutModal']//a[@href='/login']`))
	cartRows     = locator.Of("cart rows",
		locator.XPath(`//table[@id='cart_info_table']//tbody/tr`),
		locator.XPath(`//table[@id='cart_info_table']//tr[starts-with(@id, 'product-')]`),
		locator.Relative(locator.Tag("tr"), locator.Below, cartTable),
	)
	rowDelete = locator.Of("row delete link",
		locator.Class("cart_quantity_delete"),
		locator.LinkText("Delete"),
		locator.XPath(`.//a[contains(@class,'delete') or contains(@href,'delete')]`),
		locator.XPath(`.//td[last()]//a`),
	)
	rowDeleteByIndex = locator.Of("indexed row delete link",
		locator.XPath(`.//a[contains(@class,'cart_quantity_delete') or contains(@class,'delete')]`),
	)
)

func cartRow(id string) locator.Set {
	return locator.Of("cart row "+id,
		locator.ID("product-"+id),
		locator.XPath(fmt.Sprintf(`//*[@id='cart_info_table']//tr[td[@data-product-id=%s]]`, locator.Literal(id))),
	)
}

func rowCell(name, id, xpath string) locator.Set {
	return locator.Of(name+" "+id, locator.XPath(fmt.Sprintf(xpath, locator.Literal("product-"+id))))
}

// Cart is the /view_cart page. Product ids are validated before they are
// placed in a query; an invalid id makes queries return their default and
// actions fail with InvalidArgument.
type Cart struct {
	base
}

// NewCart creates the cart page object. It does not navigate.
func NewCart(env Env) *Cart {
	return &Cart{base: newBase(env, "cart")}
}

// Open loads the cart page.
func (p *Cart) Open(ctx context.Context) error {
	return opError("OpenCart", p.site.CartURL, p.open(ctx, p.site.CartURL))
}

// IsItemInCart reports whether the cart has a row for product id. Only a
// row identified by the product id counts.
func (p *Cart) IsItemInCart(ctx context.Context, id string) bool {
	return orDefault(p.log, "IsItemInCart", false)(p.itemInCart(ctx, id))
}

func (p *Cart) itemInCart(ctx context.Context, id string) (bool, error) {
	if err := locator.ValidateID(id); err != nil {
		return false, err
	}
	els, err := p.res.Resolve(ctx, cartRow(id), nil)
	return len(els) > 0, err
}

// Rows returns the cart rows, trying tbody rows, then product- rows, then
// rows below the cart table.
func (p *Cart) Rows(ctx context.Context) []session.Element {
	return orDefault(p.log, "Rows", []session.Element{})(p.res.Resolve(ctx, cartRows, nil))
}

// ItemCount returns the number of cart rows.
func (p *Cart) ItemCount(ctx context.Context) int {
	return len(p.Rows(ctx))
}

// RemoveItem deletes product id from the cart and waits for its row to go.
func (p *Cart) RemoveItem(ctx context.Context, id string) error {
	target := "product " + id
	if err := locator.ValidateID(id); err != nil {
		return opError("RemoveItem", target, err)
	}
	link, row, err := p.deleteLink(ctx, id)
	if err != nil {
		return opError("RemoveItem", target, err)
	}
	if err := p.act.Click(ctx, link).Error(); err != nil {
		return opError("RemoveItem", target, err)
	}
	_, err = wait.Until(ctx, p.policy(p.waits.Default), p.rowGone(row, id))
	return opError("RemoveItem", target, err)
}

// deleteLink finds the delete control for product id: first by a direct
// query, then inside the row whose id is product-<id>, then inside the
// row at position id.
func (p *Cart) deleteLink(ctx context.Context, id string) (session.Element, *session.Element, error) {
	direct := rowCell("delete link", id, `//tr[@id=%s]//a[contains(@class,'cart_quantity_delete')]`)
	if els, err := p.res.Resolve(ctx, direct, nil); err != nil {
		return session.Element{}, nil, err
	} else if len(els) > 0 {
		return els[0], nil, nil
	}

	rows, err := p.res.Resolve(ctx, cartRows, nil)
	if err != nil {
		return session.Element{}, nil, err
	}
	if len(rows) == 0 {
		return session.Element{}, nil, core.ErrElementNotFound.WithMessage("no rows found in cart table")
	}

	for i := range rows {
		rowID, err := p.sess.Attribute(ctx, rows[i], "id")
		if err != nil || rowID != "product-"+id {
			continue
		}
		els, err := p.res.Resolve(ctx, rowDelete, &rows[i])
		if err != nil {
			return session.Element{}, nil, err
		}
		if len(els) > 0 {
			return els[0], &rows[i], nil
		}
	}

	if idx, err := strconv.Atoi(id); err == nil && idx > 0 && idx <= len(rows) {
		row := rows[idx-1]
		els, err := p.res.Resolve(ctx, rowDeleteByIndex, &row)
		if err != nil {
			return session.Element{}, nil, err
		}
		if len(els) > 0 {
			p.log.Warn("deleting cart row by position", zap.String("product", id), zap.Int("row", idx))
			return els[0], &row, nil
		}
	}
	return session.Element{}, nil, core.ErrElementNotFound.WithMessagef("product %s not found in cart, rows found: %d", id, len(rows))
}

func (p *Cart) rowGone(row *session.Element, id string) wait.Probe[struct{}] {
	if row == nil {
		return wait.Absent(p.res, cartRow(id))
	}
	el := *row
	return wait.Func(func(ctx context.Context) (bool, error) {
		shown, err := p.sess.Displayed(ctx, el)
		if core.IsKind(err, core.KindStale) {
			return true, nil
		}
		return !shown, err
	})
}

// VerifyItemRemoved fails with an assertion error while product id still
// has a row.
func (p *Cart) VerifyItemRemoved(ctx context.Context, id string) error {
	present, err := p.itemInCart(ctx, id)
	if err != nil {
		return opError("VerifyItemRemoved", "product "+id, err)
	}
	if present {
		return opError("VerifyItemRemoved", "product "+id,
			core.ErrAssertion.WithMessagef("product %s was not removed from the cart", id))
	}
	return nil
}

// ProceedToCheckout clicks Proceed To Checkout.
func (p *Cart) ProceedToCheckout(ctx context.Context) error {
	return opError("ProceedToCheckout", cartProceed.Name, p.click(ctx, cartProceed, p.waits.Default))
}

// Total returns the cart total cell text, or "".
func (p *Cart) Total(ctx context.Context) string {
	return orDefault(p.log, "Total", "")(p.text(ctx, cartTotal, nil))
}

// UpdateQuantity is not offered by the cart: quantities are read-only.
func (p *Cart) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	return opError("UpdateQuantity", "product "+id,
		core.ErrUnsupported.WithMessage("quantity update not supported in this cart implementation"))
}

// ProductQuantity returns the quantity of product id, or 0.
func (p *Cart) ProductQuantity(ctx context.Context, id string) int {
	return orDefault(p.log, "ProductQuantity", 0)(p.quantity(ctx, id))
}

func (p *Cart) quantity(ctx context.Context, id string) (int, error) {
	if err := locator.ValidateID(id); err != nil {
		return 0, err
	}
	s, err := p.text(ctx, rowCell("quantity", id, `//tr[@id=%s]//button[@class='disabled']`), nil)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

// VerifyQuantity reports whether product id has quantity want.
func (p *Cart) VerifyQuantity(ctx context.Context, id string, want int) bool {
	return p.ProductQuantity(ctx, id) == want
}

// ProductPrice returns the unit price text of product id, or "".
func (p *Cart) ProductPrice(ctx context.Context, id string) string {
	return orDefault(p.log, "ProductPrice", "")(p.cell(ctx, id, "price", `//tr[@id=%s]//td[@class='cart_price']/p`))
}

// PriceMatches reports whether product id is priced exactly expected.
func (p *Cart) PriceMatches(ctx context.Context, id, expected string) bool {
	price := p.ProductPrice(ctx, id)
	return price != "" && price == strings.TrimSpace(expected)
}

// ProductTotal returns the line total text of product id, or "".
func (p *Cart) ProductTotal(ctx context.Context, id string) string {
	return orDefault(p.log, "ProductTotal", "")(p.cell(ctx, id, "line total", `//tr[@id=%s]//td[@class='cart_total']/p`))
}

func (p *Cart) cell(ctx context.Context, id, name, xpath string) (string, error) {
	if err := locator.ValidateID(id); err != nil {
		return "", err
	}
	return p.text(ctx, rowCell(name, id, xpath), nil)
}

// IsUserLoggedIn reports whether the Logout link is shown.
func (p *Cart) IsUserLoggedIn(ctx context.Context) bool {
	return orDefault(p.log, "IsUserLoggedIn", false)(p.displayed(ctx, cartLogout))
}

// IsCheckoutModalDisplayed waits for the guest checkout modal.
func (p *Cart) IsCheckoutModalDisplayed(ctx context.Context) bool {
	return orDefault(p.log, "IsCheckoutModalDisplayed", false)(p.shownWithin(ctx, cartModal, p.waits.Default))
}

// ClickRegisterLogin follows the Register / Login link of the guest
// checkout modal.
func (p *Cart) ClickRegisterLogin(ctx context.Context) error {
	return opError("ClickRegisterLogin", cartModalReg.Name, p.click(ctx, cartModalReg, p.waits.Default))
}
