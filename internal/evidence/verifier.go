package evidence

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// Verifier checks that an evidence reference points at an image resource.
// Every evidence ref must pass verification before a request row is written.
type Verifier interface {
	VerifyImage(ctx context.Context, ref string) error
}

// Func adapts a function to the Verifier interface.
type Func func(ctx context.Context, ref string) error

// VerifyImage implements Verifier.
func (f Func) VerifyImage(ctx context.Context, ref string) error {
	return f(ctx, ref)
}

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
}

// HTTPVerifier probes the resource with a HEAD request and accepts image/*
// content types. Hosts that reject HEAD fall back to an extension check, the
// same signal a chat attachment exposes in its filename.
type HTTPVerifier struct {
	client *http.Client
}

// NewHTTPVerifier builds a verifier with the given timeout.
func NewHTTPVerifier(timeout time.Duration) *HTTPVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPVerifier{client: &http.Client{Timeout: timeout}}
}

// VerifyImage implements Verifier.
func (v *HTTPVerifier) VerifyImage(ctx context.Context, ref string) error {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("evidence ref %q is not a valid URL", ref)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("evidence ref %q must use http or https", ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, parsed.String(), nil)
	if err != nil {
		return fmt.Errorf("build evidence probe: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe evidence ref %q: %w", ref, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented:
		return verifyByExtension(parsed, ref)
	case resp.StatusCode >= 300:
		return fmt.Errorf("evidence ref %q returned status %d", ref, resp.StatusCode)
	}

	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if contentType == "" {
		return verifyByExtension(parsed, ref)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("evidence ref %q is %s, expected an image", ref, contentType)
	}
	return nil
}

func verifyByExtension(parsed *url.URL, ref string) error {
	ext := strings.ToLower(path.Ext(parsed.Path))
	if _, ok := imageExtensions[ext]; !ok {
		return fmt.Errorf("evidence ref %q does not look like an image", ref)
	}
	return nil
}
