package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/troikatech/call-router/pkg/client"
)

func TestCheckURL(t *testing.T) {
	f := NewFetcher(FetcherConfig{TrustedDomains: []string{"46elks.com", ".46elks.se"}})

	tests := []struct {
		url string
		ok  bool
	}{
		{"https://api.46elks.com/a1/calls/abc/recording.wav", true},
		{"https://46elks.com/x.wav", true},
		{"https://media.46elks.se/x.wav", true},
		{"https://API.46ELKS.COM/x.wav", true},
		{"http://api.46elks.com/x.wav", false},
		{"https://evil46elks.com/x.wav", false},
		{"https://46elks.com.evil.net/x.wav", false},
		{"ftp://api.46elks.com/x.wav", false},
		{"not a url", false},
		{"", false},
	}

	for _, tt := range tests {
		_, err := f.CheckURL(tt.url)
		if (err == nil) != tt.ok {
			t.Errorf("CheckURL(%q) error = %v, want ok=%v", tt.url, err, tt.ok)
		}
		if err != nil && !errors.Is(err, ErrUntrustedURL) {
			t.Errorf("CheckURL(%q) error not ErrUntrustedURL: %v", tt.url, err)
		}
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "u1" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/rec.wav":
			w.Write([]byte("RIFFdata"))
		case "/big.wav":
			w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{
		TrustedDomains: []string{"127.0.0.1"},
		AllowInsecure:  true,
		MaxBytes:       32,
		Timeout:        time.Second,
		User:           "u1",
		Password:       "secret",
	})

	data, err := f.Fetch(context.Background(), srv.URL+"/rec.wav")
	if err != nil || string(data) != "RIFFdata" {
		t.Fatalf("Fetch() = %q, %v", data, err)
	}

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.wav")
	var se *client.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Errorf("missing: err = %v", err)
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/big.wav"); err == nil {
		t.Error("expected size cap error")
	}
}
