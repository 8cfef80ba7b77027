// Package core provides the execution model types shared by sessions, pages and the runner.
package core

// Attachment represents a debug artifact captured for a scenario
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: screenshot, page_source
	ContentType string `json:"contentType"` // MIME type: image/png, text/html
	Path        string `json:"path"`        // File path relative to output directory
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
	AttachmentPageSource = "page_source"
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeHTML = "text/html"
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypePNG,
		Path:        path,
		Body:        data,
	}
}

// NewPageSourceAttachment creates a page source attachment
func NewPageSourceAttachment(path string, html string) Attachment {
	return Attachment{
		Name:        AttachmentPageSource,
		ContentType: ContentTypeHTML,
		Path:        path,
		Body:        []byte(html),
	}
}

// ArtifactConfig controls when and what artifacts are captured
type ArtifactConfig struct {
	// When to capture
	CaptureOnFailure bool `mapstructure:"on_failure" yaml:"on_failure" json:"captureOnFailure"` // Default: true
	CaptureOnSuccess bool `mapstructure:"on_success" yaml:"on_success" json:"captureOnSuccess"` // Default: false

	// What to capture
	Screenshot bool `mapstructure:"screenshot" yaml:"screenshot" json:"screenshot"`   // Default: true
	PageSource bool `mapstructure:"page_source" yaml:"page_source" json:"pageSource"` // Default: true
}

// DefaultArtifactConfig returns sensible defaults for artifact capture
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		CaptureOnFailure: true,
		CaptureOnSuccess: false,
		Screenshot:       true,
		PageSource:       true,
	}
}

// ShouldCapture returns true if artifacts should be captured for the given status
func (c ArtifactConfig) ShouldCapture(status StepStatus) bool {
	switch status {
	case StatusFailed, StatusErrored:
		return c.CaptureOnFailure
	case StatusPassed, StatusWarned:
		return c.CaptureOnSuccess
	default:
		return false
	}
}
