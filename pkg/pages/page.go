// Package pages models the storefront screens as page objects.
//
// Action operations (Open, AddProductToCart, PlaceOrder...) return an
// *OpError naming the operation and its target. Query operations
// (IsItemInCart, ProductPrice...) never fail: any resolution error maps
// to the documented default (false, "", 0).
package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/action"
	"github.com/devicelab-dev/shopflow/pkg/config"
	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/locator"
	"github.com/devicelab-dev/shopflow/pkg/session"
	"github.com/devicelab-dev/shopflow/pkg/wait"
	"go.uber.org/zap"
)

// Env is what every page object borrows from the running scenario.
type Env struct {
	Session  session.Session
	Site     config.SiteConfig
	Waits    config.WaitConfig
	Overlays []string
	Logger   *zap.Logger
}

// EnvFromConfig builds an Env for sess from a loaded configuration.
func EnvFromConfig(sess session.Session, cfg *config.Config, logger *zap.Logger) Env {
	return Env{
		Session:  sess,
		Site:     cfg.Site,
		Waits:    cfg.Waits,
		Overlays: cfg.Overlays,
		Logger:   logger,
	}
}

// OpError is returned by page action operations.
type OpError struct {
	Op     string // Operation: AddProductToCart, PlaceOrder...
	Target string // Logical target: product 3, place order button...
	Err    error
}

func (e *OpError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Kind returns the classification of the underlying failure.
func (e *OpError) Kind() core.ErrorKind {
	return core.KindOf(e.Err)
}

func opError(op, target string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Target: target, Err: err}
}

// orDefault adapts an internal (T, error) query into the page contract:
// errors become def. Usage: orDefault(log, "Op", def)(p.query(ctx)).
func orDefault[T any](log *zap.Logger, op string, def T) func(T, error) T {
	return func(v T, err error) T {
		if err != nil {
			log.Debug("query defaulted", zap.String("op", op), zap.Error(err))
			return def
		}
		return v
	}
}

// fallbackWait applies when a configured wait is unset.
const fallbackWait = 10 * time.Second

// base carries the collaborators shared by all pages.
type base struct {
	sess  session.Session
	res   *locator.Resolver
	act   *action.Executor
	site  config.SiteConfig
	waits config.WaitConfig
	log   *zap.Logger
}

func newBase(env Env, name string) base {
	log := env.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named(name)
	return base{
		sess:  env.Session,
		res:   locator.NewResolver(env.Session, log),
		act:   action.NewExecutor(env.Session, action.WithOverlays(env.Overlays), action.WithLogger(log)),
		site:  env.Site,
		waits: env.Waits,
		log:   log,
	}
}

func (b *base) policy(timeout time.Duration) wait.Policy {
	if timeout <= 0 {
		timeout = fallbackWait
	}
	poll := b.waits.Poll
	if poll <= 0 {
		poll = wait.DefaultPoll
	}
	return wait.New(timeout).WithPoll(min(poll, timeout))
}

// open navigates to url and waits for the document to finish loading.
func (b *base) open(ctx context.Context, url string) error {
	b.log.Info("navigating", zap.String("url", url))
	if err := b.sess.Navigate(ctx, url); err != nil {
		return err
	}
	if err := b.sess.MaximizeWindow(ctx); err != nil {
		b.log.Debug("maximize failed", zap.Error(err))
	}
	_, err := wait.Until(ctx, b.policy(b.waits.PageLoad), wait.DocumentReady(b.sess))
	return err
}

func (b *base) visible(ctx context.Context, set locator.Set, timeout time.Duration) (session.Element, error) {
	return wait.Until(ctx, b.policy(timeout), wait.Visible(b.res, set, nil))
}

func (b *base) clickable(ctx context.Context, set locator.Set, timeout time.Duration) (session.Element, error) {
	return wait.Until(ctx, b.policy(timeout), wait.Clickable(b.res, set, nil))
}

// click waits for set to become clickable and clicks it through the
// executor fallback chain.
func (b *base) click(ctx context.Context, set locator.Set, timeout time.Duration) error {
	el, err := b.clickable(ctx, set, timeout)
	if err != nil {
		return err
	}
	res := b.act.Click(ctx, el)
	if res.Succeeded && res.Strategy != core.StrategyDirect {
		b.log.Info("click needed fallback", zap.String("target", set.Name), zap.String("strategy", res.Strategy))
	}
	return res.Error()
}

// typeInto waits for set to become visible, clears it and types text.
func (b *base) typeInto(ctx context.Context, set locator.Set, text string, timeout time.Duration) error {
	el, err := b.visible(ctx, set, timeout)
	if err != nil {
		return err
	}
	return b.act.Type(ctx, el, text).Error()
}

func (b *base) selectIn(ctx context.Context, set locator.Set, choice string, timeout time.Duration) error {
	el, err := b.visible(ctx, set, timeout)
	if err != nil {
		return err
	}
	return b.act.Select(ctx, el, choice).Error()
}

// displayed resolves set once and reports whether any match is shown.
func (b *base) displayed(ctx context.Context, set locator.Set) (bool, error) {
	els, err := b.res.Resolve(ctx, set, nil)
	if err != nil {
		return false, err
	}
	for _, el := range els {
		shown, err := b.sess.Displayed(ctx, el)
		if err != nil {
			return false, err
		}
		if shown {
			return true, nil
		}
	}
	return false, nil
}

// shownWithin waits up to timeout for set to become visible. A timeout is
// a negative answer, not an error.
func (b *base) shownWithin(ctx context.Context, set locator.Set, timeout time.Duration) (bool, error) {
	_, err := b.visible(ctx, set, timeout)
	if err == nil {
		return true, nil
	}
	if core.IsKind(err, core.KindTimeout) {
		return false, nil
	}
	return false, err
}

// text resolves set once and returns the trimmed text of the first match.
func (b *base) text(ctx context.Context, set locator.Set, scope *session.Element) (string, error) {
	els, err := b.res.Resolve(ctx, set, scope)
	if err != nil {
		return "", err
	}
	if len(els) == 0 {
		return "", core.ErrElementNotFound.WithMessagef("%s not found", set.Describe())
	}
	s, err := b.sess.Text(ctx, els[0])
	return strings.TrimSpace(s), err
}

func (b *base) property(ctx context.Context, set locator.Set, script string) (interface{}, error) {
	els, err := b.res.Resolve(ctx, set, nil)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, core.ErrElementNotFound.WithMessagef("%s not found", set.Describe())
	}
	return b.sess.CallOnElement(ctx, els[0], script)
}

// Set bundles the page objects for one session.
type Set struct {
	Home     *Home
	Login    *Login
	Signup   *Signup
	Products *Products
	Cart     *Cart
	Checkout *Checkout
}

// NewSet builds every page object over env.
func NewSet(env Env) *Set {
	return &Set{
		Home:     NewHome(env),
		Login:    NewLogin(env),
		Signup:   NewSignup(env),
		Products: NewProducts(env),
		Cart:     NewCart(env),
		Checkout: NewCheckout(env),
	}
}

// NewCheckoutFlow starts a checkout state machine at the cart.
func (s *Set) NewCheckoutFlow() *CheckoutFlow {
	return NewCheckoutFlow(s.Cart, s.Checkout)
}

// maskCard keeps the last four digits of a card number.
func maskCard(number string) string {
	if len(number) <= 4 {
		return strings.Repeat("*", len(number))
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
