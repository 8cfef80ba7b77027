// Package mock provides a scripted in-memory Session for tests that do not
// need a browser.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/session"
)

// Node is one fake DOM element.
type Node struct {
	ID         string
	Text       string
	Value      string
	Attrs      map[string]string
	Options    []string // <select> option values; option text is the same
	Visible    bool
	Enabled    bool
	Checked    bool
	Bounds     core.Bounds
	Detached   bool
	OnClick    func(s *Session) // Runs after a successful click of any kind
	Validation string           // validationMessage
}

type queryKey struct {
	scope string
	by    session.By
	value string
}

// Session is a scripted session. Zero value is not usable; call New.
type Session struct {
	mu sync.Mutex

	nodes   map[string]*Node
	queries map[queryKey][]string
	clickQ  map[string][]error
	calls   map[string]int
	nextID  int

	URL       string
	PageTitle string
	Source    string
	Windows   []string
	Current   string
	Closed    bool

	Typed    map[string]string // node id -> accumulated keys
	Scripts  []string          // ExecuteScript bodies, in order
	Scrolled map[string]int    // node id -> scroll-into-view count

	// Hooks; nil means default behavior.
	OnNavigate func(s *Session, url string)
	OnScript   func(s *Session, body string, args []interface{}) (interface{}, error)
	OnCall     func(s *Session, n *Node, fn string, args []interface{}) (interface{}, error)
	FindError  error // returned by every FindElements call when set
}

// New creates an empty session with one window.
func New() *Session {
	return &Session{
		nodes:     map[string]*Node{},
		queries:   map[queryKey][]string{},
		clickQ:    map[string][]error{},
		calls:     map[string]int{},
		Typed:     map[string]string{},
		Scrolled:  map[string]int{},
		Windows:   []string{"main"},
		Current:   "main",
		PageTitle: "Automation Exercise",
	}
}

// Add registers a node and returns it. A blank ID is generated.
func (s *Session) Add(n *Node) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		s.nextID++
		n.ID = fmt.Sprintf("node-%d", s.nextID)
	}
	if n.Attrs == nil {
		n.Attrs = map[string]string{}
	}
	s.nodes[n.ID] = n
	return n
}

// Visible adds a visible, enabled node answering the given query.
func (s *Session) Visible(by session.By, value string, text string) *Node {
	n := s.Add(&Node{Text: text, Visible: true, Enabled: true, Bounds: core.Bounds{Width: 100, Height: 20}})
	s.Register(by, value, n.ID)
	return n
}

// Register makes a document-level query return the given node ids.
func (s *Session) Register(by session.By, value string, ids ...string) {
	s.RegisterIn("", by, value, ids...)
}

// RegisterIn makes a query scoped to the scope node return the ids.
func (s *Session) RegisterIn(scope string, by session.By, value string, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := queryKey{scope: scope, by: by, value: value}
	s.queries[k] = append(s.queries[k], ids...)
}

// Unregister removes a query answer.
func (s *Session) Unregister(by session.By, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queries, queryKey{by: by, value: value})
}

// Node returns a registered node.
func (s *Session) Node(id string) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes[id]
}

// Detach marks a node as removed from the document.
func (s *Session) Detach(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[id]; ok {
		n.Detached = true
	}
}

// QueueClickErrors makes the next direct clicks on id fail, in order.
func (s *Session) QueueClickErrors(id string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clickQ[id] = append(s.clickQ[id], errs...)
}

// Calls returns how many times a method was invoked. Element methods are
// also counted per node as "Method:id".
func (s *Session) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *Session) count(name, id string) {
	s.calls[name]++
	if id != "" {
		s.calls[name+":"+id]++
	}
}

func (s *Session) lookup(el session.Element) (*Node, error) {
	n, ok := s.nodes[el.ID]
	if !ok || n.Detached {
		return nil, core.ErrStaleElement.WithMessagef("element %s is no longer attached", el.ID)
	}
	return n, nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	s.count("Navigate", "")
	s.URL = url
	hook := s.OnNavigate
	s.mu.Unlock()
	if hook != nil {
		hook(s, url)
	}
	return ctx.Err()
}

func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.count("Refresh", "")
	s.mu.Unlock()
	return ctx.Err()
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("CurrentURL", "")
	return s.URL, nil
}

func (s *Session) Title(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.PageTitle, nil
}

// FindElements returns registered, attached nodes for the query.
func (s *Session) FindElements(ctx context.Context, q session.Query, scope *session.Element) ([]session.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("FindElements", "")
	s.calls["FindElements:"+q.String()]++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.FindError != nil {
		return nil, s.FindError
	}
	key := queryKey{by: q.By, value: q.Value}
	if scope != nil {
		if _, err := s.lookup(*scope); err != nil {
			return nil, err
		}
		key.scope = scope.ID
	}
	out := []session.Element{}
	for _, id := range s.queries[key] {
		if n, ok := s.nodes[id]; ok && !n.Detached {
			out = append(out, session.Element{ID: id})
		}
	}
	return out, nil
}

// Click fails with the next queued error for the node, or with
// NotInteractable for hidden or disabled nodes.
func (s *Session) Click(ctx context.Context, el session.Element) error {
	s.mu.Lock()
	s.count("Click", el.ID)
	n, err := s.lookup(el)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if q := s.clickQ[el.ID]; len(q) > 0 {
		s.clickQ[el.ID] = q[1:]
		s.mu.Unlock()
		return q[0]
	}
	if !n.Visible || !n.Enabled {
		s.mu.Unlock()
		return core.ErrNotInteractable
	}
	s.mu.Unlock()
	s.clicked(n)
	return nil
}

func (s *Session) clicked(n *Node) {
	s.mu.Lock()
	if n.Attrs["type"] == "radio" || n.Attrs["type"] == "checkbox" {
		n.Checked = true
	}
	hook := n.OnClick
	s.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}

func (s *Session) Clear(ctx context.Context, el session.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("Clear", el.ID)
	n, err := s.lookup(el)
	if err != nil {
		return err
	}
	n.Value = ""
	delete(s.Typed, el.ID)
	return nil
}

func (s *Session) SendKeys(ctx context.Context, el session.Element, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("SendKeys", el.ID)
	n, err := s.lookup(el)
	if err != nil {
		return err
	}
	if !n.Visible || !n.Enabled {
		return core.ErrNotInteractable
	}
	n.Value += text
	s.Typed[el.ID] += text
	return nil
}

func (s *Session) Text(ctx context.Context, el session.Element) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("Text", el.ID)
	n, err := s.lookup(el)
	if err != nil {
		return "", err
	}
	return n.Text, nil
}

func (s *Session) Attribute(ctx context.Context, el session.Element, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookup(el)
	if err != nil {
		return "", err
	}
	return n.Attrs[name], nil
}

func (s *Session) Displayed(ctx context.Context, el session.Element) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("Displayed", el.ID)
	n, err := s.lookup(el)
	if err != nil {
		return false, err
	}
	return n.Visible, nil
}

func (s *Session) Enabled(ctx context.Context, el session.Element) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookup(el)
	if err != nil {
		return false, err
	}
	return n.Enabled, nil
}

func (s *Session) Rect(ctx context.Context, el session.Element) (core.Bounds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookup(el)
	if err != nil {
		return core.Bounds{}, err
	}
	return n.Bounds, nil
}

// ExecuteScript records the body. Overlay removal returns 0 and the
// ready-state probe returns "complete" unless OnScript answers first.
func (s *Session) ExecuteScript(ctx context.Context, body string, args ...interface{}) (interface{}, error) {
	s.mu.Lock()
	s.count("ExecuteScript", "")
	s.Scripts = append(s.Scripts, body)
	hook := s.OnScript
	s.mu.Unlock()

	if hook != nil {
		return hook(s, body, args)
	}
	switch body {
	case session.ScriptRemoveOverlays:
		return float64(0), nil
	case session.ScriptDocumentReady:
		return "complete", nil
	case session.ScriptOpenWindow:
		s.mu.Lock()
		handle := fmt.Sprintf("window-%d", len(s.Windows)+1)
		s.Windows = append(s.Windows, handle)
		s.mu.Unlock()
		return true, nil
	}
	return nil, nil
}

// CallOnElement implements the exported element scripts against node state.
func (s *Session) CallOnElement(ctx context.Context, el session.Element, fn string, args ...interface{}) (interface{}, error) {
	s.mu.Lock()
	s.count("CallOnElement", el.ID)
	n, err := s.lookup(el)
	hook := s.OnCall
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if hook != nil {
		if v, err := hook(s, n, fn, args); v != nil || err != nil {
			return v, err
		}
	}

	switch fn {
	case session.ScriptScrollIntoView:
		s.mu.Lock()
		s.Scrolled[el.ID]++
		s.mu.Unlock()
		return true, nil
	case session.ScriptJSClick:
		s.mu.Lock()
		s.count("JSClick", el.ID)
		s.mu.Unlock()
		s.clicked(n)
		return true, nil
	case session.ScriptSelectOption:
		if len(args) == 0 {
			return nil, core.ErrInvalidArgument
		}
		want := strings.TrimSpace(fmt.Sprint(args[0]))
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, o := range n.Options {
			if o == want {
				n.Value = o
				return "ok", nil
			}
		}
		return "missing", nil
	case session.ScriptValue:
		s.mu.Lock()
		defer s.mu.Unlock()
		return n.Value, nil
	case session.ScriptValidationMessage:
		s.mu.Lock()
		defer s.mu.Unlock()
		return n.Validation, nil
	case session.ScriptChecked:
		s.mu.Lock()
		defer s.mu.Unlock()
		return n.Checked, nil
	}
	return nil, nil
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("Screenshot", "")
	return []byte{0x89, 0x50, 0x4E, 0x47}, nil
}

func (s *Session) PageSource(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Source == "" {
		return "<html><head><title>" + s.PageTitle + "</title></head><body></body></html>", nil
	}
	return s.Source, nil
}

func (s *Session) WindowHandles(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Windows...), nil
}

func (s *Session) CurrentWindow(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Current, nil
}

func (s *Session) SwitchToWindow(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("SwitchToWindow", "")
	for _, w := range s.Windows {
		if w == handle {
			s.Current = handle
			return nil
		}
	}
	return core.ErrSession.WithMessagef("no such window %s", handle)
}

func (s *Session) CloseWindow(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("CloseWindow", "")
	for i, w := range s.Windows {
		if w == s.Current {
			s.Windows = append(s.Windows[:i], s.Windows[i+1:]...)
			break
		}
	}
	s.Current = ""
	return nil
}

func (s *Session) MaximizeWindow(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("MaximizeWindow", "")
	return nil
}

func (s *Session) Info() core.BrowserInfo {
	return core.BrowserInfo{Name: "mock", Headless: true}
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("Close", "")
	s.Closed = true
	return nil
}

var _ session.Session = (*Session)(nil)
