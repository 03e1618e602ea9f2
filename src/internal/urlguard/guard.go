package urlguard

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bookshelf/src/internal/httpx"
)

const (
	DefaultTimeout            = 10 * time.Second
	DefaultMaxRedirects       = 5
	DefaultMaxBodyBytes int64 = 5 << 20
)

// Config tunes a Guard. The zero value is usable.
type Config struct {
	// Timeout bounds the whole exchange, body read included. Default: 10s.
	Timeout time.Duration
	// MaxRedirects caps followed redirects. Default: 5.
	MaxRedirects int
	// MaxBodyBytes caps ReadBody. Default: 5 MiB.
	MaxBodyBytes int64
	// ResolveHosts makes the dialer resolve every hostname and refuse
	// private, loopback and link-local addresses before connecting.
	// Ignored when Transport is set.
	ResolveHosts bool
	// Transport replaces the default transport (tests).
	Transport http.RoundTripper
	Logger    *slog.Logger
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = DefaultMaxRedirects
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Guard fetches validated URLs. It is safe for concurrent use and
// implements httpx.Doer.
type Guard struct {
	client *http.Client
	cfg    Config
	log    *slog.Logger
}

var _ httpx.Doer = (*Guard)(nil)

// New builds a Guard from cfg.
func New(cfg Config) *Guard {
	cfg.defaults()
	rt := cfg.Transport
	if rt == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.ResolveHosts {
			t.Proxy = nil
			t.DialContext = safeDialContext(&net.Dialer{Timeout: cfg.Timeout}, net.DefaultResolver.LookupIPAddr)
		}
		rt = t
	}
	g := &Guard{cfg: cfg, log: cfg.Logger.With("component", "urlguard")}
	g.client = &http.Client{Transport: rt, CheckRedirect: g.checkRedirect}
	return g
}

// Timeout reports the per-request timeout in effect.
func (g *Guard) Timeout() time.Duration { return g.cfg.Timeout }

// Fetch validates raw and GETs it. It never returns a response together with
// an error; failures are *ValidationError, *TimeoutError or *TransportError.
// The caller must close the response body.
func (g *Guard) Fetch(ctx context.Context, raw string) (*http.Response, error) {
	v := Validate(raw)
	if !v.Valid {
		return nil, v.AsError()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.URL.String(), nil)
	if err != nil {
		return nil, &TransportError{URL: raw, Err: err}
	}
	return g.Do(req)
}

// Do sends req after validating its URL. Default headers are added where the
// caller left them empty, so JSON clients can still set their own Accept.
func (g *Guard) Do(req *http.Request) (*http.Response, error) {
	raw := req.URL.String()
	if err := Validate(raw).AsError(); err != nil {
		return nil, err
	}
	httpx.SetDefaults(req)

	ctx, cancel := context.WithTimeout(req.Context(), g.cfg.Timeout)
	start := time.Now()
	resp, err := g.client.Do(req.WithContext(ctx))
	if err != nil {
		cancel()
		ferr := g.classify(ctx, raw, err)
		g.log.Debug("fetch failed", "url", req.URL.Redacted(), "error", ferr, "elapsed", time.Since(start))
		return nil, ferr
	}
	body, err := decodeBody(resp)
	if err != nil {
		resp.Body.Close()
		cancel()
		return nil, &TransportError{URL: raw, Err: err}
	}
	resp.Body = &guardedBody{ReadCloser: body, url: raw, ctx: ctx, cancel: cancel}
	g.log.Debug("fetched", "url", req.URL.Redacted(), "status", resp.StatusCode, "elapsed", time.Since(start))
	return resp, nil
}

// ReadBody reads resp.Body up to the configured cap. A deadline hit while
// reading is reported as *TimeoutError.
func (g *Guard) ReadBody(resp *http.Response) ([]byte, error) {
	data, err := httpx.ReadLimited(resp.Body, g.cfg.MaxBodyBytes)
	if err == nil {
		return data, nil
	}
	raw := ""
	if gb, ok := resp.Body.(*guardedBody); ok {
		raw = gb.url
		if errors.Is(gb.ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{URL: raw, After: g.cfg.Timeout}
		}
	}
	return nil, &TransportError{URL: raw, Err: err}
}

func (g *Guard) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= g.cfg.MaxRedirects {
		return fmt.Errorf("stopped after %d redirects", len(via))
	}
	if err := Validate(req.URL.String()).AsError(); err != nil {
		g.log.Warn("redirect blocked", "from", via[len(via)-1].URL.Redacted(), "to", req.URL.Redacted(), "reason", err)
		return fmt.Errorf("redirect to %s blocked: %w", req.URL.Host, err)
	}
	return nil
}

func (g *Guard) classify(ctx context.Context, raw string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{URL: raw, After: g.cfg.Timeout}
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	return &TransportError{URL: raw, Err: err}
}

// guardedBody releases the request timer when the caller closes the body.
type guardedBody struct {
	io.ReadCloser
	url    string
	ctx    context.Context
	cancel context.CancelFunc
}

func (b *guardedBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

type stackedCloser struct {
	io.Reader
	inner, outer io.Closer
}

func (s stackedCloser) Close() error {
	s.inner.Close()
	return s.outer.Close()
}

// decodeBody undoes gzip/deflate content coding. The transport leaves it in
// place because Accept-Encoding is set explicitly.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	var (
		zr  io.ReadCloser
		err error
	)
	switch enc {
	case "gzip", "x-gzip":
		zr, err = gzip.NewReader(resp.Body)
	case "deflate":
		zr, err = zlib.NewReader(resp.Body)
	default:
		return resp.Body, nil
	}
	if errors.Is(err, io.EOF) {
		return resp.Body, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s body: %w", enc, err)
	}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return stackedCloser{Reader: zr, inner: zr, outer: resp.Body}, nil
}
