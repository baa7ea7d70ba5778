package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/websocket"
)

// DevToolsPortFile is written by Chromium into the profile directory when
// started with --remote-debugging-port=0.
const DevToolsPortFile = "DevToolsActivePort"

var (
	// ErrNoPageTarget is returned when the browser exposes no page to navigate.
	ErrNoPageTarget = errors.New("no page target")
	// ErrTargetGone is returned when a recorded page id no longer exists.
	ErrTargetGone = errors.New("page target gone")
	// ErrAmbiguousTarget is returned when several pages could be the one meant.
	ErrAmbiguousTarget = errors.New("ambiguous page target")
)

const (
	defaultNavigateTimeout = 10 * time.Second
	targetPollInterval     = 100 * time.Millisecond
)

// Target is one entry of the DevTools /json/list endpoint.
type Target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// DevToolsPort reads the debugging port from the profile directory.
func DevToolsPort(profileDir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(profileDir, DevToolsPortFile))
	if err != nil {
		return 0, fmt.Errorf("devtools port unavailable: %w", err)
	}
	return parseDevToolsPort(string(data))
}

func parseDevToolsPort(content string) (int, error) {
	first, _, _ := strings.Cut(content, "\n")
	port, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid %s content %q", DevToolsPortFile, first)
	}
	return port, nil
}

// Client talks to the DevTools endpoint of one browser profile.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for the DevTools endpoint at 127.0.0.1:port.
func NewClient(port int) *Client {
	return &Client{
		base: "http://127.0.0.1:" + strconv.Itoa(port),
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

// Targets lists DevTools targets.
func (c *Client) Targets(ctx context.Context) ([]Target, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/json/list", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list targets: %s", resp.Status)
	}
	var targets []Target
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("failed to decode targets: %w", err)
	}
	return targets, nil
}

func isPage(t Target) bool {
	return t.Type == "page" && t.WebSocketDebuggerURL != ""
}

// PageRef identifies the page a window shows inside a browser that may own
// several windows.
type PageRef struct {
	ID  string // DevTools target id, empty when unknown
	URL string // URL the page was last pointed at
}

// ResolveTarget picks the page ref refers to. A known id must match exactly.
// Without one the page showing ref.URL is used, and as a last resort the
// browser's only page.
func ResolveTarget(targets []Target, ref PageRef) (Target, error) {
	if ref.ID != "" {
		for _, t := range targets {
			if t.ID == ref.ID && isPage(t) {
				return t, nil
			}
		}
		return Target{}, fmt.Errorf("%w: %s", ErrTargetGone, ref.ID)
	}
	if ref.URL != "" {
		for _, t := range targets {
			if isPage(t) && sameURL(t.URL, ref.URL) {
				return t, nil
			}
		}
	}
	var pages []Target
	for _, t := range targets {
		if isPage(t) {
			pages = append(pages, t)
		}
	}
	switch len(pages) {
	case 0:
		return Target{}, ErrNoPageTarget
	case 1:
		return pages[0], nil
	default:
		return Target{}, fmt.Errorf("%w: %d pages", ErrAmbiguousTarget, len(pages))
	}
}

// ClaimTarget returns the first page showing url whose id is not in
// claimed. A page that redirected away from url is still claimed when it is
// the only unclaimed one.
func ClaimTarget(targets []Target, url string, claimed map[string]bool) (Target, bool) {
	var free []Target
	for _, t := range targets {
		if !isPage(t) || claimed[t.ID] {
			continue
		}
		if sameURL(t.URL, url) {
			return t, true
		}
		free = append(free, t)
	}
	if len(free) == 1 {
		return free[0], true
	}
	return Target{}, false
}

// sameURL ignores the trailing slash Chromium adds to bare origins.
func sameURL(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

type cdpRequest struct {
	ID     int            `json:"id"`
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

type cdpResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Page lists targets and resolves ref against them.
func (c *Client) Page(ctx context.Context, ref PageRef) (Target, error) {
	targets, err := c.Targets(ctx)
	if err != nil {
		return Target{}, err
	}
	return ResolveTarget(targets, ref)
}

// Navigate sends Page.navigate to page.
func (c *Client) Navigate(ctx context.Context, page Target, url string) error {
	ws, err := websocket.Dial(page.WebSocketDebuggerURL, "", c.base)
	if err != nil {
		return fmt.Errorf("failed to open devtools socket: %w", err)
	}
	defer ws.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultNavigateTimeout)
	}
	if err := ws.SetDeadline(deadline); err != nil {
		return err
	}

	const requestID = 1
	req := cdpRequest{ID: requestID, Method: "Page.navigate", Params: map[string]any{"url": url}}
	if err := websocket.JSON.Send(ws, req); err != nil {
		return fmt.Errorf("failed to send Page.navigate: %w", err)
	}

	// Events may arrive before the reply.
	for {
		var resp cdpResponse
		if err := websocket.JSON.Receive(ws, &resp); err != nil {
			return fmt.Errorf("failed to read Page.navigate reply: %w", err)
		}
		if resp.ID != requestID {
			continue
		}
		if resp.Error != nil {
			return fmt.Errorf("Page.navigate: %s (%d)", resp.Error.Message, resp.Error.Code)
		}
		var result struct {
			ErrorText string `json:"errorText"`
		}
		if len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, &result); err != nil {
				return fmt.Errorf("failed to decode Page.navigate result: %w", err)
			}
		}
		if result.ErrorText != "" {
			return fmt.Errorf("Page.navigate: %s", result.ErrorText)
		}
		return nil
	}
}

// Navigate points the page ref names, in the browser running on profileDir,
// at url. It returns the id of the page it navigated.
func Navigate(ctx context.Context, profileDir string, ref PageRef, url string) (string, error) {
	port, err := DevToolsPort(profileDir)
	if err != nil {
		return "", err
	}
	c := NewClient(port)
	page, err := c.Page(ctx, ref)
	if err != nil {
		return "", err
	}
	if err := c.Navigate(ctx, page, url); err != nil {
		return "", err
	}
	return page.ID, nil
}

// AwaitTarget waits for the browser on profileDir to expose a page showing
// url that is not in claimed. The port file and the page may both appear
// some time after the window does.
func AwaitTarget(ctx context.Context, profileDir, url string, claimed map[string]bool) (Target, error) {
	ticker := time.NewTicker(targetPollInterval)
	defer ticker.Stop()
	var lastErr error
	for {
		port, err := DevToolsPort(profileDir)
		if err == nil {
			var targets []Target
			targets, err = NewClient(port).Targets(ctx)
			if err == nil {
				if t, ok := ClaimTarget(targets, url, claimed); ok {
					return t, nil
				}
				err = fmt.Errorf("no unclaimed page showing %s", url)
			}
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return Target{}, fmt.Errorf("%w: %v", ctx.Err(), lastErr)
		case <-ticker.C:
		}
	}
}
