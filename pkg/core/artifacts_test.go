package core

import "testing"

func TestNewScreenshotAttachment(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4E, 0x47} // PNG header
	attachment := NewScreenshotAttachment("CART-03/attempt-1.png", data)

	if attachment.Name != AttachmentScreenshot {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentScreenshot)
	}
	if attachment.ContentType != ContentTypePNG {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypePNG)
	}
	if attachment.Path != "CART-03/attempt-1.png" {
		t.Errorf("Path = %s", attachment.Path)
	}
	if len(attachment.Body) != 4 {
		t.Errorf("Body length = %d, want 4", len(attachment.Body))
	}
}

func TestNewPageSourceAttachment(t *testing.T) {
	attachment := NewPageSourceAttachment("CART-03/page.html", "<html></html>")

	if attachment.Name != AttachmentPageSource {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentPageSource)
	}
	if attachment.ContentType != ContentTypeHTML {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypeHTML)
	}
	if string(attachment.Body) != "<html></html>" {
		t.Errorf("Body = %q", attachment.Body)
	}
}

func TestDefaultArtifactConfig(t *testing.T) {
	cfg := DefaultArtifactConfig()

	if !cfg.CaptureOnFailure {
		t.Error("CaptureOnFailure should default to true")
	}
	if cfg.CaptureOnSuccess {
		t.Error("CaptureOnSuccess should default to false")
	}
	if !cfg.Screenshot || !cfg.PageSource {
		t.Error("Screenshot and PageSource should default to true")
	}
}

func TestArtifactConfig_ShouldCapture(t *testing.T) {
	cfg := DefaultArtifactConfig()

	tests := []struct {
		status StepStatus
		want   bool
	}{
		{StatusFailed, true},
		{StatusErrored, true},
		{StatusPassed, false},
		{StatusWarned, false},
		{StatusSkipped, false},
		{StatusPending, false},
	}
	for _, tt := range tests {
		if got := cfg.ShouldCapture(tt.status); got != tt.want {
			t.Errorf("ShouldCapture(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestArtifactConfig_ShouldCapture_CaptureOnSuccess(t *testing.T) {
	cfg := ArtifactConfig{CaptureOnSuccess: true}

	if !cfg.ShouldCapture(StatusPassed) {
		t.Error("ShouldCapture(passed) should be true")
	}
	if cfg.ShouldCapture(StatusFailed) {
		t.Error("ShouldCapture(failed) should be false when CaptureOnFailure is off")
	}
}
