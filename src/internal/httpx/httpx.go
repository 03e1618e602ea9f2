package httpx

import (
	"fmt"
	"io"
	"net/http"
)

// Doer is the minimal HTTP client interface used across packages.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// BotUA identifies the library bot on every outbound request.
const BotUA = "Mozilla/5.0 (compatible; BookBot/1.0)"

const (
	AcceptHTML = "text/html,application/xhtml+xml"
	AcceptJSON = "application/json"
)

// SetUA sets the BotUA header on the request.
func SetUA(req *http.Request) {
	if req != nil {
		req.Header.Set("User-Agent", BotUA)
	}
}

// SetDefaults fills User-Agent, Accept and Accept-Encoding when the caller
// has not set them already.
func SetDefaults(req *http.Request) {
	if req == nil {
		return
	}
	if req.Header.Get("User-Agent") == "" {
		SetUA(req)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", AcceptHTML)
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip, deflate")
	}
}

// ReadLimited reads at most limit bytes from r and fails when the body is
// larger. A limit <= 0 reads everything.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}
	return data, nil
}
