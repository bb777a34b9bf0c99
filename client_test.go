package restclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestClient_Get_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/users" {
			t.Errorf("expected /users, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("page"); got != "1" {
			t.Errorf("expected page=1, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":1}`)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})

	v, err := c.Get(context.Background(), "/users", WithQuery(map[string]string{"page": "1"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{"id": float64(1)}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("expected %v, got %v", want, v)
	}
}

func TestClient_Post_SendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "Bob" {
			t.Errorf("expected name=Bob, got %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(201)
		json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})

	v, err := c.Post(context.Background(), "/users", JSON(map[string]string{"name": "Bob"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(map[string]any)["name"] != "Bob" {
		t.Errorf("expected echoed body, got %v", v)
	}
}

func TestClient_Post_MalformedJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "{bad")
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})

	_, err := c.Post(context.Background(), "/users", JSON(map[string]int{}))
	e, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	if e.Details.ParseError == "" {
		t.Error("expected parseError detail")
	}
	if e.Details.Raw != "{bad" {
		t.Errorf("expected raw body {bad, got %q", e.Details.Raw)
	}
}

func TestClient_Get_EmptyJSONBodyIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "   \n")
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})

	v, err := c.Get(context.Background(), "/empty")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != nil {
		t.Errorf("expected nil result, got %v", v)
	}
}

func TestClient_Get_NonJSONPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte{0x1, 0x2, 0x3})
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})

	v, err := c.Get(context.Background(), "/blob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, ok := v.([]byte)
	if !ok || len(b) != 3 {
		t.Errorf("expected 3 raw bytes, got %T %v", v, v)
	}
}

func TestClient_ServerError_Statuses(t *testing.T) {
	tests := []struct {
		status      int
		contentType string
		body        string
		check       func(t *testing.T, e *Error)
	}{
		{400, "application/json", `{"message":"nope"}`, func(t *testing.T, e *Error) {
			if e.Details.Parsed.(map[string]any)["message"] != "nope" {
				t.Errorf("expected parsed JSON detail, got %+v", e.Details)
			}
		}},
		{503, "text/html", "<html><body>down</body></html>", func(t *testing.T, e *Error) {
			if !strings.Contains(e.Details.HTMLContent, "down") {
				t.Errorf("expected html detail, got %+v", e.Details)
			}
		}},
		{500, "text/plain", "boom", func(t *testing.T, e *Error) {
			if e.Details.Raw != "boom" {
				t.Errorf("expected raw detail, got %+v", e.Details)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%s", tt.status, tt.contentType), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c := newTestClient(t, Config{BaseURL: srv.URL})

			_, err := c.Get(context.Background(), "/fail")
			e, ok := AsError(err)
			if !ok {
				t.Fatalf("expected *Error, got %v", err)
			}
			if e.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, e.Status)
			}
			if e.Details.Code != tt.status {
				t.Errorf("expected detail code %d, got %d", tt.status, e.Details.Code)
			}
			tt.check(t, e)
		})
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	// Grab a port that nothing listens on.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	c := newTestClient(t, Config{BaseURL: "http://" + addr})

	_, err = c.Get(context.Background(), "/unreachable")
	e, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	if e.Status != -1 {
		t.Errorf("expected status -1, got %d", e.Status)
	}
	if e.Code != CodeConnectionRefused {
		t.Errorf("expected code 105, got %d", e.Code)
	}
	if !e.Details.NetworkError {
		t.Error("expected network error detail")
	}
}

func TestClient_Timeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	c := newTestClient(t, Config{BaseURL: srv.URL})

	_, err := c.Get(context.Background(), "/slow", WithTimeout(50*time.Millisecond))
	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	e, _ := AsError(err)
	if e.Status != -1 || e.Details.Code != CodeTimeout {
		t.Errorf("expected -1/101, got %d/%d", e.Status, e.Details.Code)
	}
}

func TestClient_PreRequestHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("expected hook auth header, got %q", got)
		}
		if got := r.Header.Get("X-Static"); got != "hooked" {
			t.Errorf("expected hook to overwrite header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	var hookMethod, hookURL string
	c := newTestClient(t, Config{
		BaseURL: srv.URL,
		Headers: map[string]string{"X-Static": "default"},
		PreRequestHook: func(method, url string) *PreInterceptor {
			hookMethod, hookURL = method, url
			return &PreInterceptor{
				Headers: map[string]string{
					"Authorization": "Bearer token-123",
					"X-Static":      "hooked",
				},
			}
		},
	})

	if _, err := c.Get(context.Background(), "/secure"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hookMethod != http.MethodGet {
		t.Errorf("hook should receive method, got %q", hookMethod)
	}
	if !strings.HasSuffix(hookURL, "/secure") {
		t.Errorf("hook should receive resolved URL, got %q", hookURL)
	}
}

func TestClient_PreRequestHook_TimeoutOverride(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	c := newTestClient(t, Config{
		BaseURL: srv.URL,
		PreRequestHook: func(method, url string) *PreInterceptor {
			return &PreInterceptor{Timeout: 50 * time.Millisecond}
		},
	})

	start := time.Now()
	_, err := c.Get(context.Background(), "/slow")
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("hook timeout not applied, took %s", elapsed)
	}
}

func TestClient_ProcessorAndPostHook_Order(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `"base"`)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{
		BaseURL: srv.URL,
		PostResponseHook: func(_ context.Context, v any) (any, error) {
			return v.(string) + "+hook", nil
		},
	})

	v, err := c.Get(context.Background(), "/value", WithProcessor(func(v any) (any, error) {
		return v.(string) + "+proc", nil
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "base+proc+hook" {
		t.Errorf("expected base+proc+hook, got %v", v)
	}
}

func TestClient_PostHookFallbacks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `"base"`)
	}))
	defer srv.Close()

	// Neither processor nor hook: decoded body comes back untouched.
	c := newTestClient(t, Config{BaseURL: srv.URL})
	v, err := c.Get(context.Background(), "/value")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "base" {
		t.Errorf("expected base, got %v", v)
	}
}

func TestClient_ErrorHook_InvokedOnceAndRethrows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer srv.Close()

	calls := 0
	c := newTestClient(t, Config{
		BaseURL: srv.URL,
		ErrorHook: func(e *Error) bool {
			calls++
			return true // "handled" must not suppress propagation
		},
	})

	_, err := c.Get(context.Background(), "/fail")
	if err == nil {
		t.Fatal("expected error to propagate despite hook returning true")
	}
	if calls != 1 {
		t.Errorf("expected exactly one hook invocation, got %d", calls)
	}
}

func TestClient_ErrorHook_NotInvokedOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	calls := 0
	c := newTestClient(t, Config{
		BaseURL: srv.URL,
		ErrorHook: func(e *Error) bool {
			calls++
			return false
		},
	})

	if _, err := c.Get(context.Background(), "/ok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Errorf("error hook fired on success: %d calls", calls)
	}
}

func TestClient_ContentTypeOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/xml" {
			t.Errorf("expected application/xml, got %s", ct)
		}
		w.WriteHeader(204)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})

	_, err := c.Put(context.Background(), "/doc",
		Raw([]byte("<doc/>"), "text/xml"),
		WithContentType("application/xml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_PathConcatenationVerbatim(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(204)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL + "/v1"})

	if _, err := c.Get(context.Background(), "/users"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v1/users" {
		t.Errorf("expected verbatim concat /v1/users, got %q", gotPath)
	}
}

func TestClient_RequestIDHeader(t *testing.T) {
	var first, second string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if first == "" {
			first = r.Header.Get("X-Request-Id")
		} else {
			second = r.Header.Get("X-Request-Id")
		}
		w.WriteHeader(204)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	ctx := context.Background()
	c.Get(ctx, "/a")
	c.Get(ctx, "/b")

	if first == "" || second == "" {
		t.Fatal("expected request IDs on every call")
	}
	if first == second {
		t.Error("expected a fresh request ID per descriptor")
	}
}

func TestClient_CookiesCarriedAcrossCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
			w.WriteHeader(204)
		default:
			cookie, err := r.Cookie("session")
			if err != nil || cookie.Value != "abc" {
				t.Error("expected session cookie on follow-up request")
			}
			w.WriteHeader(204)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	ctx := context.Background()
	if _, err := c.Get(ctx, "/login"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Get(ctx, "/me"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_DoRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":7}`)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})

	raw, err := c.DoRaw(context.Background(), Request{Method: http.MethodGet, Path: "/raw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !raw.IsSuccess() {
		t.Error("expected success")
	}
	if string(raw.Body) != `{"id":7}` {
		t.Errorf("expected undecoded body, got %s", raw.Body)
	}
	if !strings.Contains(raw.ContentType(), "json") {
		t.Errorf("expected json content type, got %s", raw.ContentType())
	}
}

func TestClient_MissingMethodIsConfigError(t *testing.T) {
	c := newTestClient(t, Config{BaseURL: "http://localhost:1"})

	_, err := c.Do(context.Background(), Request{Path: "/x"})
	if !IsConfigError(err) {
		t.Fatalf("expected config error, got %v", err)
	}
	e, _ := AsError(err)
	if e.Details.Code != CodeConfig {
		t.Errorf("expected detail code 106, got %d", e.Details.Code)
	}
}
