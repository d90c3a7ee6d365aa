package dynamic

import (
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
)

func documentResponse(frame cdp.FrameID, url string, status int64) *network.EventResponseReceived {
	return &network.EventResponseReceived{
		Type:     network.ResourceTypeDocument,
		FrameID:  frame,
		Response: &network.Response{URL: url, Status: status},
	}
}

func TestSession_StatusAfterRedirect(t *testing.T) {
	s := &Session{mainFrame: "main"}
	s.expectNavigation()

	// requested /m/1, the browser followed a redirect to /results/1
	s.onEvent(documentResponse("main", "https://lab.test/results/1", 404))
	if got := s.lastStatus(); got != 404 {
		t.Errorf("Expected status of the redirected document, got %d", got)
	}
}

func TestSession_StatusIgnoresSubframesAndLaterDocuments(t *testing.T) {
	s := &Session{mainFrame: "main"}
	s.expectNavigation()

	s.onEvent(documentResponse("ad-frame", "https://ads.test/", 500))
	s.onEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeScript,
		FrameID:  "main",
		Response: &network.Response{URL: "https://lab.test/app.js", Status: 503},
	})
	if got := s.lastStatus(); got != 0 {
		t.Fatalf("Expected no status before the main document, got %d", got)
	}

	s.onEvent(documentResponse("main", "https://lab.test/m/1", 200))
	s.onEvent(documentResponse("main", "https://lab.test/m/1?refresh", 500))
	if got := s.lastStatus(); got != 200 {
		t.Errorf("Expected first main-frame document status, got %d", got)
	}

	s.expectNavigation()
	if got := s.lastStatus(); got != 0 {
		t.Errorf("Expected status reset for a new navigation, got %d", got)
	}
}

func TestSession_StatusWithoutKnownFrame(t *testing.T) {
	s := &Session{}
	s.expectNavigation()

	s.onEvent(documentResponse("any", "https://lab.test/m/2", 410))
	if got := s.lastStatus(); got != 410 {
		t.Errorf("Expected first document status, got %d", got)
	}
}
