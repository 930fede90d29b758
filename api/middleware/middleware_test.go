package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{CookieName: "sf_session", TTL: time.Hour, Backend: config.SessionBackendMemory}
}

func captureSession(t *testing.T, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var seen string
	handler := Session(testSessionConfig(), false, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return seen, rec
}

func TestSessionMintsCookieWhenMissing(t *testing.T) {
	seen, rec := captureSession(t, httptest.NewRequest(http.MethodGet, "/", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected a uuid session id, got %q", seen)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != seen {
		t.Fatalf("expected session cookie carrying %s, got %+v", seen, cookies)
	}
	if !cookies[0].HttpOnly || cookies[0].SameSite != http.SameSiteLaxMode || cookies[0].MaxAge != 3600 {
		t.Fatalf("unexpected cookie attributes %+v", cookies[0])
	}
	if rec.Header().Get(SessionHeader) != seen {
		t.Fatalf("expected session header to echo the id")
	}
}

func TestSessionReusesCookieThenHeader(t *testing.T) {
	existing := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sf_session", Value: existing})
	req.Header.Set(SessionHeader, uuid.NewString())
	if seen, _ := captureSession(t, req); seen != existing {
		t.Fatalf("cookie should win, got %s", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, existing)
	if seen, _ := captureSession(t, req); seen != existing {
		t.Fatalf("header should be used without cookie, got %s", seen)
	}
}

func TestSessionReplacesInvalidIDs(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sf_session", Value: "not-a-uuid"})
	req.Header.Set(SessionHeader, uuid.Nil.String())

	seen, _ := captureSession(t, req)
	if seen == "not-a-uuid" || seen == uuid.Nil.String() || seen == "" {
		t.Fatalf("expected a freshly minted id, got %q", seen)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	var seen logger.Correlation
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.CorrelationFromContext(r.Context())
	})

	for _, logg := range []*logger.Logger{testLogger(), nil} {
		handler := RequestID(logg)(Session(testSessionConfig(), false, logg)(inner))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, "abc-1.2:3")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Header().Get(requestIDHeader) != "abc-1.2:3" {
			t.Fatalf("expected caller request id to be echoed")
		}
		if seen.RequestID != "abc-1.2:3" || seen.SessionID != rec.Header().Get(SessionHeader) {
			t.Fatalf("expected request and session ids on context, got %+v", seen)
		}
	}

	handler := RequestID(testLogger())(inner)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestRequestIDReplacesUnsafeValues(t *testing.T) {
	handler := RequestID(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, raw := range []string{`abc" level="error`, "line\nbreak", strings.Repeat("a", maxRequestIDLen+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, raw)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		got := rec.Header().Get(requestIDHeader)
		if got == raw {
			t.Fatalf("expected %q to be replaced", raw)
		}
		if _, err := uuid.Parse(got); err != nil {
			t.Fatalf("expected a minted uuid, got %q", got)
		}
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	handler := Recoverer(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

type observation struct {
	method, route string
	status        int
}

type recordingHTTPObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (o *recordingHTTPObserver) Observe(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observation{method: method, route: route, status: status})
}

func TestLoggingObservesRoutePattern(t *testing.T) {
	observer := &recordingHTTPObserver{}
	r := chi.NewRouter()
	r.Use(Logging(testLogger(), observer))
	r.Get("/api/v1/products/{productId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/12", nil))

	if len(observer.seen) != 1 {
		t.Fatalf("expected one observation, got %d", len(observer.seen))
	}
	got := observer.seen[0]
	if got.route != "/api/v1/products/{productId}" || got.status != http.StatusNotFound || got.method != http.MethodGet {
		t.Fatalf("unexpected observation %+v", got)
	}
}
