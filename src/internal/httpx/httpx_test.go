package httpx

import (
	"net/http"
	"strings"
	"testing"
)

func TestSetUA(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	if hv := req.Header.Get("User-Agent"); hv != "" {
		t.Fatalf("precondition: UA not empty: %q", hv)
	}
	SetUA(req)
	if hv := req.Header.Get("User-Agent"); hv != BotUA {
		t.Fatalf("SetUA: want %q, got %q", BotUA, hv)
	}
	SetUA(nil)
}

func TestSetDefaults_KeepsExplicitAccept(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	req.Header.Set("Accept", AcceptJSON)
	SetDefaults(req)
	if got := req.Header.Get("Accept"); got != AcceptJSON {
		t.Fatalf("Accept overwritten: %q", got)
	}
	if got := req.Header.Get("Accept-Encoding"); got != "gzip, deflate" {
		t.Fatalf("Accept-Encoding: %q", got)
	}
	if got := req.Header.Get("User-Agent"); got != BotUA {
		t.Fatalf("User-Agent: %q", got)
	}
}

func TestSetDefaults_HTML(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	SetDefaults(req)
	if got := req.Header.Get("Accept"); got != AcceptHTML {
		t.Fatalf("Accept: %q", got)
	}
}

func TestReadLimited(t *testing.T) {
	b, err := ReadLimited(strings.NewReader("hello"), 5)
	if err != nil || string(b) != "hello" {
		t.Fatalf("exact limit: %q %v", b, err)
	}
	if _, err := ReadLimited(strings.NewReader("hello!"), 5); err == nil {
		t.Fatalf("expected overflow error")
	}
	b, err = ReadLimited(strings.NewReader("unbounded"), 0)
	if err != nil || string(b) != "unbounded" {
		t.Fatalf("unlimited: %q %v", b, err)
	}
}
