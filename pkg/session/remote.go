package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"go.uber.org/zap"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Remote is a Session backed by a W3C WebDriver endpoint (chromedriver,
// geckodriver, Selenium Grid).
type Remote struct {
	serverURL string
	sessionID string
	client    *http.Client
	logger    *zap.Logger
	info      core.BrowserInfo
	pageLoad  time.Duration
}

// NewRemote creates a session on the configured endpoint.
func NewRemote(ctx context.Context, opts Options) (*Remote, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Remote{
		serverURL: strings.TrimSuffix(opts.Browser.RemoteURL, "/"),
		client:    &http.Client{Timeout: 2 * time.Minute},
		logger:    logger,
		pageLoad:  opts.PageLoad,
		info: core.BrowserInfo{
			Name:     orName(opts.Browser.Name),
			Headless: opts.Browser.Headless,
			Remote:   true,
			Width:    opts.Browser.WindowWidth,
			Height:   opts.Browser.WindowHeight,
		},
	}
	if err := r.connect(ctx, Capabilities(opts)); err != nil {
		return nil, err
	}
	if r.pageLoad > 0 {
		if _, err := r.post(ctx, r.sessionPath()+"/timeouts", map[string]interface{}{
			"pageLoad": r.pageLoad.Milliseconds(),
		}); err != nil {
			r.logger.Warn("failed to set page load timeout", zap.Error(err))
		}
	}
	return r, nil
}

// Capabilities builds the alwaysMatch capabilities for the browser.
func Capabilities(opts Options) map[string]interface{} {
	name := strings.ToLower(orName(opts.Browser.Name))
	args := append([]string{}, opts.Browser.Args...)
	if opts.Browser.WindowWidth > 0 && opts.Browser.WindowHeight > 0 && name != "firefox" {
		args = append(args, fmt.Sprintf("--window-size=%d,%d", opts.Browser.WindowWidth, opts.Browser.WindowHeight))
	}

	caps := map[string]interface{}{}
	switch name {
	case "firefox":
		caps["browserName"] = "firefox"
		if opts.Browser.Headless {
			args = append(args, "-headless")
		}
		caps["moz:firefoxOptions"] = map[string]interface{}{"args": args}
	case "edge":
		caps["browserName"] = "MicrosoftEdge"
		if opts.Browser.Headless {
			args = append(args, "--headless=new")
		}
		caps["ms:edgeOptions"] = map[string]interface{}{"args": args}
	default:
		caps["browserName"] = "chrome"
		if opts.Browser.Headless {
			args = append(args, "--headless=new")
		}
		caps["goog:chromeOptions"] = map[string]interface{}{"args": args}
	}
	caps["pageLoadStrategy"] = "normal"
	return caps
}

func (r *Remote) connect(ctx context.Context, caps map[string]interface{}) error {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": caps,
		},
	}

	resp, err := r.post(ctx, "/session", body)
	if err != nil {
		return core.ErrSession.WithMessage("failed to create session").WithCause(err)
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return core.ErrSession.WithMessage("invalid session response")
	}
	r.sessionID, _ = value["sessionId"].(string)
	if r.sessionID == "" {
		return core.ErrSession.WithMessage("no session ID in response")
	}
	if got, ok := value["capabilities"].(map[string]interface{}); ok {
		if v, ok := got["browserVersion"].(string); ok {
			r.info.Version = v
		}
	}
	r.logger = r.logger.With(zap.String("session", r.sessionID))
	r.logger.Info("remote session created", zap.String("url", r.serverURL), zap.String("version", r.info.Version))
	return nil
}

// SessionID returns the W3C session id.
func (r *Remote) SessionID() string {
	return r.sessionID
}

// Navigation

func (r *Remote) Navigate(ctx context.Context, url string) error {
	r.logger.Debug("navigate", zap.String("url", url))
	_, err := r.post(ctx, r.sessionPath()+"/url", map[string]interface{}{"url": url})
	return err
}

func (r *Remote) Refresh(ctx context.Context) error {
	_, err := r.post(ctx, r.sessionPath()+"/refresh", map[string]interface{}{})
	return err
}

func (r *Remote) CurrentURL(ctx context.Context) (string, error) {
	return r.getString(ctx, r.sessionPath()+"/url")
}

func (r *Remote) Title(ctx context.Context) (string, error) {
	return r.getString(ctx, r.sessionPath()+"/title")
}

// Elements

// FindElements maps id/name/class queries onto CSS, which every W3C
// endpoint supports.
func (r *Remote) FindElements(ctx context.Context, q Query, scope *Element) ([]Element, error) {
	using, value := w3cStrategy(q)
	path := r.sessionPath() + "/elements"
	if scope != nil {
		path = r.elementPath(scope.ID) + "/elements"
	}

	resp, err := r.post(ctx, path, map[string]interface{}{"using": using, "value": value})
	if err != nil {
		return nil, err
	}
	values, ok := resp["value"].([]interface{})
	if !ok {
		return []Element{}, nil
	}
	out := make([]Element, 0, len(values))
	for _, v := range values {
		if m, ok := v.(map[string]interface{}); ok {
			if id := extractElementID(m); id != "" {
				out = append(out, Element{ID: id})
			}
		}
	}
	return out, nil
}

func w3cStrategy(q Query) (string, string) {
	switch q.By {
	case ByID:
		return string(ByCSS), cssAttr("id", q.Value)
	case ByName:
		return string(ByCSS), cssAttr("name", q.Value)
	case ByClassName:
		return string(ByCSS), fmt.Sprintf(`[class~=%s]`, cssString(q.Value))
	default:
		return string(q.By), q.Value
	}
}

func cssAttr(name, value string) string {
	return fmt.Sprintf("[%s=%s]", name, cssString(value))
}

func cssString(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}

func (r *Remote) Click(ctx context.Context, el Element) error {
	_, err := r.post(ctx, r.elementPath(el.ID)+"/click", map[string]interface{}{})
	return err
}

func (r *Remote) Clear(ctx context.Context, el Element) error {
	_, err := r.post(ctx, r.elementPath(el.ID)+"/clear", map[string]interface{}{})
	return err
}

func (r *Remote) SendKeys(ctx context.Context, el Element, text string) error {
	_, err := r.post(ctx, r.elementPath(el.ID)+"/value", map[string]interface{}{"text": text})
	return err
}

func (r *Remote) Text(ctx context.Context, el Element) (string, error) {
	return r.getString(ctx, r.elementPath(el.ID)+"/text")
}

func (r *Remote) Attribute(ctx context.Context, el Element, name string) (string, error) {
	return r.getString(ctx, r.elementPath(el.ID)+"/attribute/"+name)
}

func (r *Remote) Displayed(ctx context.Context, el Element) (bool, error) {
	return r.getBool(ctx, r.elementPath(el.ID)+"/displayed")
}

func (r *Remote) Enabled(ctx context.Context, el Element) (bool, error) {
	return r.getBool(ctx, r.elementPath(el.ID)+"/enabled")
}

func (r *Remote) Rect(ctx context.Context, el Element) (core.Bounds, error) {
	resp, err := r.get(ctx, r.elementPath(el.ID)+"/rect")
	if err != nil {
		return core.Bounds{}, err
	}
	v, ok := resp["value"].(map[string]interface{})
	if !ok {
		return core.Bounds{}, core.ErrSession.WithMessage("invalid rect response")
	}
	num := func(k string) int {
		f, _ := v[k].(float64)
		return int(f)
	}
	return core.Bounds{X: num("x"), Y: num("y"), Width: num("width"), Height: num("height")}, nil
}

// Scripts

func (r *Remote) ExecuteScript(ctx context.Context, body string, args ...interface{}) (interface{}, error) {
	if args == nil {
		args = []interface{}{}
	}
	resp, err := r.post(ctx, r.sessionPath()+"/execute/sync", map[string]interface{}{
		"script": body,
		"args":   args,
	})
	if err != nil {
		return nil, err
	}
	return resp["value"], nil
}

// CallOnElement passes the element as arguments[0] and applies fn to it.
func (r *Remote) CallOnElement(ctx context.Context, el Element, fn string, args ...interface{}) (interface{}, error) {
	all := append([]interface{}{map[string]interface{}{w3cElementKey: el.ID}}, args...)
	body := fmt.Sprintf("return (%s).apply(arguments[0], Array.prototype.slice.call(arguments, 1));", fn)
	return r.ExecuteScript(ctx, body, all...)
}

// Capture

func (r *Remote) Screenshot(ctx context.Context) ([]byte, error) {
	s, err := r.getString(ctx, r.sessionPath()+"/screenshot")
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, core.ErrSession.WithMessage("invalid screenshot payload").WithCause(err)
	}
	return data, nil
}

func (r *Remote) PageSource(ctx context.Context) (string, error) {
	return r.getString(ctx, r.sessionPath()+"/source")
}

// Windows

func (r *Remote) WindowHandles(ctx context.Context) ([]string, error) {
	resp, err := r.get(ctx, r.sessionPath()+"/window/handles")
	if err != nil {
		return nil, err
	}
	values, _ := resp["value"].([]interface{})
	handles := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			handles = append(handles, s)
		}
	}
	return handles, nil
}

func (r *Remote) CurrentWindow(ctx context.Context) (string, error) {
	return r.getString(ctx, r.sessionPath()+"/window")
}

func (r *Remote) SwitchToWindow(ctx context.Context, handle string) error {
	_, err := r.post(ctx, r.sessionPath()+"/window", map[string]interface{}{"handle": handle})
	return err
}

func (r *Remote) CloseWindow(ctx context.Context) error {
	_, err := r.delete(ctx, r.sessionPath()+"/window")
	return err
}

func (r *Remote) MaximizeWindow(ctx context.Context) error {
	_, err := r.post(ctx, r.sessionPath()+"/window/maximize", map[string]interface{}{})
	return err
}

func (r *Remote) Info() core.BrowserInfo {
	return r.info
}

// Close deletes the session.
func (r *Remote) Close() error {
	if r.sessionID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err := r.delete(ctx, r.sessionPath())
	r.sessionID = ""
	return err
}

// HTTP Helpers

func (r *Remote) sessionPath() string {
	return "/session/" + r.sessionID
}

func (r *Remote) elementPath(elementID string) string {
	return r.sessionPath() + "/element/" + elementID
}

func (r *Remote) getString(ctx context.Context, path string) (string, error) {
	resp, err := r.get(ctx, path)
	if err != nil {
		return "", err
	}
	s, _ := resp["value"].(string)
	return s, nil
}

func (r *Remote) getBool(ctx context.Context, path string) (bool, error) {
	resp, err := r.get(ctx, path)
	if err != nil {
		return false, err
	}
	b, _ := resp["value"].(bool)
	return b, nil
}

func (r *Remote) get(ctx context.Context, path string) (map[string]interface{}, error) {
	return r.request(ctx, http.MethodGet, path, nil)
}

func (r *Remote) post(ctx context.Context, path string, body interface{}) (map[string]interface{}, error) {
	return r.request(ctx, http.MethodPost, path, body)
}

func (r *Remote) delete(ctx context.Context, path string) (map[string]interface{}, error) {
	return r.request(ctx, http.MethodDelete, path, nil)
}

// request performs one WebDriver call and classifies any error payload.
func (r *Remote) request(ctx context.Context, method, path string, body interface{}) (map[string]interface{}, error) {
	url := r.serverURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, core.ErrInvalidArgument.WithCause(err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, core.ErrSession.WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, Classify(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Classify(err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, core.ErrSession.WithMessagef("failed to parse response (HTTP %d)", resp.StatusCode).WithCause(err)
	}

	if errValue, ok := result["value"].(map[string]interface{}); ok {
		if code, ok := errValue["error"].(string); ok && code != "" {
			msg, _ := errValue["message"].(string)
			return result, Classify(&WebDriverError{Code: code, Message: msg, Status: resp.StatusCode})
		}
	}
	if resp.StatusCode >= 400 {
		return result, Classify(&WebDriverError{Code: "unknown error", Message: http.StatusText(resp.StatusCode), Status: resp.StatusCode})
	}
	return result, nil
}

func extractElementID(value map[string]interface{}) string {
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy JSON wire protocol
	if id, ok := value["ELEMENT"].(string); ok {
		return id
	}
	return ""
}

var _ Session = (*Remote)(nil)
