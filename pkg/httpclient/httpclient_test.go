package httpclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/sqlscout/sqlscout/pkg/duration"
)

func TestNewClient_WithDefaultConfig(t *testing.T) {
	client := New(DefaultConfig())
	if client == nil {
		t.Fatal("New() returned nil")
	}
	if client.Timeout != duration.HTTPScanning {
		t.Errorf("Expected default timeout %v, got %v", duration.HTTPScanning, client.Timeout)
	}
}

func TestNewClient_RespectsTimeout(t *testing.T) {
	client := New(Config{Timeout: duration.HTTPProbing})
	if client.Timeout != duration.HTTPProbing {
		t.Errorf("Expected timeout %v, got %v", duration.HTTPProbing, client.Timeout)
	}
}

func TestNewClient_ZeroValuesGetDefaults(t *testing.T) {
	client := New(Config{})
	if client.Timeout == 0 {
		t.Error("zero Timeout should be replaced with a default")
	}
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatal("Transport is not *http.Transport")
	}
	if transport.MaxIdleConns != 100 {
		t.Errorf("Expected MaxIdleConns 100, got %d", transport.MaxIdleConns)
	}
	if transport.MaxConnsPerHost != 25 {
		t.Errorf("Expected MaxConnsPerHost 25, got %d", transport.MaxConnsPerHost)
	}
	if transport.IdleConnTimeout != duration.IdleConnTimeout {
		t.Errorf("Expected IdleConnTimeout %v, got %v", duration.IdleConnTimeout, transport.IdleConnTimeout)
	}
}

func TestNewClient_RespectsInsecureSkipVerify(t *testing.T) {
	client := New(Config{InsecureSkipVerify: true})
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatal("Transport is not *http.Transport")
	}
	if transport.TLSClientConfig == nil || !transport.TLSClientConfig.InsecureSkipVerify {
		t.Error("Expected InsecureSkipVerify to be set on TLS config")
	}
}

func TestNewClient_DoesNotFollowRedirectsByDefault(t *testing.T) {
	client := New(DefaultConfig())
	if client.CheckRedirect == nil {
		t.Fatal("Expected CheckRedirect to be set")
	}
	err := client.CheckRedirect(nil, nil)
	if err != http.ErrUseLastResponse {
		t.Errorf("Expected ErrUseLastResponse, got %v", err)
	}
}

func TestNewClient_FollowRedirects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FollowRedirects = true
	client := New(cfg)
	if client.CheckRedirect != nil {
		t.Error("Expected default redirect behavior when FollowRedirects is set")
	}
}

func TestNewClient_IgnoresMalformedProxy(t *testing.T) {
	client := New(Config{Proxy: "://not-a-url"})
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatal("Transport is not *http.Transport")
	}
	if transport.Proxy != nil {
		t.Error("Expected malformed proxy URL to be ignored")
	}
}

func TestNewClient_SetsProxy(t *testing.T) {
	client := New(WithProxy("http://127.0.0.1:8080"))
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatal("Transport is not *http.Transport")
	}
	if transport.Proxy == nil {
		t.Error("Expected proxy to be configured")
	}
}

func TestWithTimeout(t *testing.T) {
	cfg := WithTimeout(duration.HTTPCrawling)
	if cfg.Timeout != duration.HTTPCrawling {
		t.Errorf("Expected %v, got %v", duration.HTTPCrawling, cfg.Timeout)
	}
	if cfg.MaxIdleConns != 100 {
		t.Error("WithTimeout should keep other defaults")
	}
}

func TestNewClient_SeparateInstances(t *testing.T) {
	c1 := New(DefaultConfig())
	c2 := New(DefaultConfig())
	if c1 == c2 {
		t.Error("New() must return independent clients")
	}
	if c1.Transport == c2.Transport {
		t.Error("New() must return independent transports")
	}
}

func TestNewClient_ExpectContinueTimeout(t *testing.T) {
	client := New(DefaultConfig())
	transport := client.Transport.(*http.Transport)
	if transport.ExpectContinueTimeout != 1*time.Second {
		t.Errorf("Expected 1s ExpectContinueTimeout, got %v", transport.ExpectContinueTimeout)
	}
}
