package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/locator"
	"github.com/devicelab-dev/shopflow/pkg/wait"
	"go.uber.org/zap"
)

// ProductCount is the number of products in the catalog.
const ProductCount = 43

var (
	productsCartModal = locator.Of("cart modal", locator.ID("cartModal"))
	productsAdded     = locator.Of("added confirmation",
		locator.XPath(`//div[@id='cartModal']//h4[contains(text(),'Added')]`),
		locator.XPath(`/html/body/section[2]/div/div/div[2]/div/div[1]/div/div`),
	)
	productsViewCart = locator.Of("view cart link",
		locator.XPath(`//div[@id="cartModal"]/div/div/div[2]/p[2]/a[1]`),
		locator.XPath(`//div[@id='cartModal']//a[@href='/view_cart']`),
	)
	productsContinue = locator.Of("continue shopping button", locator.XPath(`//button[contains(@class,'close-modal')]`))
)

// addToCart locates the add-to-cart control of one product.
func addToCart(id int) locator.Set {
	return locator.Of(fmt.Sprintf("add to cart %d", id), locator.XPath(fmt.Sprintf(`//*[@data-product-id='%d']`, id)))
}

// Products is the /products catalog.
type Products struct {
	base
}

// NewProducts creates the products page object. It does not navigate.
func NewProducts(env Env) *Products {
	return &Products{base: newBase(env, "products")}
}

// Open loads the product catalog.
func (p *Products) Open(ctx context.Context) error {
	return opError("OpenProducts", p.site.ProductsURL, p.open(ctx, p.site.ProductsURL))
}

// AddProductToCart scrolls product id into view and clicks its add-to-cart
// control. Id 0 means product 1.
func (p *Products) AddProductToCart(ctx context.Context, id int) error {
	if id == 0 {
		id = 1
	}
	set := addToCart(id)
	if id < 0 || id > ProductCount {
		return opError("AddProductToCart", set.Name,
			core.ErrInvalidArgument.WithMessagef("product id %d outside 1..%d", id, ProductCount))
	}
	p.log.Info("adding product to cart", zap.Int("product", id))

	el, err := wait.Until(ctx, p.policy(p.waits.Default), wait.Present(p.res, set, nil))
	if err != nil {
		return opError("AddProductToCart", set.Name, err)
	}
	if err := p.act.ScrollIntoView(ctx, el); err != nil {
		return opError("AddProductToCart", set.Name, err)
	}
	return opError("AddProductToCart", set.Name, p.click(ctx, set, p.addWait()))
}

func (p *Products) addWait() time.Duration {
	if p.waits.AddToCart > 0 {
		return p.waits.AddToCart
	}
	return p.waits.Default
}

// IsProductAdded waits for the added-to-cart confirmation.
func (p *Products) IsProductAdded(ctx context.Context) bool {
	return orDefault(p.log, "IsProductAdded", false)(p.shownWithin(ctx, productsAdded, p.waits.Default))
}

// ClickViewCart waits for the cart modal and follows its View Cart link.
func (p *Products) ClickViewCart(ctx context.Context) error {
	if _, err := p.visible(ctx, productsCartModal, p.waits.Default); err != nil {
		return opError("ClickViewCart", productsCartModal.Name, err)
	}
	return opError("ClickViewCart", productsViewCart.Name, p.click(ctx, productsViewCart, p.waits.Default))
}

// ContinueShopping dismisses the cart modal and waits for it to close.
func (p *Products) ContinueShopping(ctx context.Context) error {
	if err := p.click(ctx, productsContinue, p.waits.Default); err != nil {
		return opError("ContinueShopping", productsContinue.Name, err)
	}
	_, err := wait.Until(ctx, p.policy(p.waits.Default), wait.Absent(p.res, productsCartModal))
	return opError("ContinueShopping", productsCartModal.Name, err)
}
