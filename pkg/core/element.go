package core

import "time"

// Bounds represents an element's layout rectangle in CSS pixels
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the bounds
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Contains checks if a point is within the bounds
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// IsEmpty reports a zero-area rectangle (detached or display:none elements).
func (b Bounds) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Strategy names recorded on ActionResult.
const (
	StrategyDirect      = "direct"
	StrategyScrollRetry = "scroll-retry"
	StrategyScriptClick = "script-click"
)

// ActionResult is the outcome of one executor action.
// Strategy names the attempt that succeeded, or the last one tried.
type ActionResult struct {
	Succeeded bool          `json:"succeeded"`
	Strategy  string        `json:"strategy"`
	Kind      ErrorKind     `json:"kind,omitempty"`
	Err       error         `json:"-"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
}

// Error returns the failure as an error, or nil on success
func (r ActionResult) Error() error {
	if r.Succeeded {
		return nil
	}
	if r.Err != nil {
		return r.Err
	}
	return ErrActionFailed
}

// BrowserInfo describes the browser behind a session
type BrowserInfo struct {
	Name      string `json:"name"`              // chrome, firefox, edge
	Version   string `json:"version,omitempty"` // Reported by the browser
	Headless  bool   `json:"headless"`          // Running without a window
	Remote    bool   `json:"remote"`            // W3C endpoint instead of a local browser
	UserAgent string `json:"userAgent,omitempty"`
	Width     int    `json:"width,omitempty"`  // Viewport width
	Height    int    `json:"height,omitempty"` // Viewport height
}
