package blob

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPProberExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		switch r.URL.Path {
		case "/slips/live.jpg":
			w.WriteHeader(http.StatusOK)
		case "/slips/removed.jpg":
			w.WriteHeader(http.StatusNotFound)
		case "/slips/expired.jpg":
			w.WriteHeader(http.StatusGone)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	prober := NewHTTPProber(WithHTTPClient(server.Client()))
	ctx := context.Background()

	ok, err := prober.Exists(ctx, server.URL+"/slips/live.jpg")
	if err != nil || !ok {
		t.Fatalf("expected present, got ok=%v err=%v", ok, err)
	}

	ok, err = prober.Exists(ctx, server.URL+"/slips/removed.jpg")
	if err != nil {
		t.Fatalf("404 should not be an error: %v", err)
	}
	if ok {
		t.Fatal("expected absent for 404")
	}

	ok, err = prober.Exists(ctx, server.URL+"/slips/expired.jpg")
	if err != nil {
		t.Fatalf("410 should not be an error: %v", err)
	}
	if ok {
		t.Fatal("expected absent for 410")
	}

	if _, err := prober.Exists(ctx, server.URL+"/slips/broken.jpg"); err == nil {
		t.Fatal("expected probe error for 500")
	}
}

func TestHTTPProberRetriesTransientFailureOnce(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prober := NewHTTPProber(WithHTTPClient(server.Client()))
	ok, err := prober.Exists(context.Background(), server.URL+"/slips/flaky.jpg")
	if err != nil || !ok {
		t.Fatalf("expected present after retry, got ok=%v err=%v", ok, err)
	}
	if hits != 2 {
		t.Fatalf("expected exactly one retry, got %d requests", hits)
	}
}

func TestHTTPProberHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prober := NewHTTPProber(WithHTTPClient(server.Client()))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := prober.Exists(ctx, server.URL+"/slips/slow.jpg"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestHTTPProberRejectsEmptyRef(t *testing.T) {
	prober := NewHTTPProber()
	if _, err := prober.Exists(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty ref")
	}
}
