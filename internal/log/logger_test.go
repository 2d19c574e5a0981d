package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, Component: ComponentLedger})

	logger.Info("Transaction created", FieldAccountID, "a1")

	out := buf.String()
	if !strings.Contains(out, "component="+ComponentLedger) {
		t.Errorf("missing component tag: %s", out)
	}
	if !strings.Contains(out, "account_id=a1") {
		t.Errorf("missing field: %s", out)
	}
}

func TestNamedRetagsWithoutDuplicating(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf}).Named(ComponentHTTP)

	if logger.Component() != ComponentHTTP {
		t.Fatalf("component = %q, want %q", logger.Component(), ComponentHTTP)
	}

	logger.Info("request completed")
	out := buf.String()
	if strings.Count(out, "component=") != 1 {
		t.Errorf("component tag repeated: %s", out)
	}
	if !strings.Contains(out, "component="+ComponentHTTP) {
		t.Errorf("wrong component: %s", out)
	}
}

func TestDebugSuppressedAtDefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf})

	logger.Debug("noise")
	if buf.Len() != 0 {
		t.Errorf("debug line emitted at info level: %s", buf.String())
	}
}

func TestMiddlewareInjectsLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, Component: ComponentHTTP})

	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := FromContext(r.Context()); got != logger {
			t.Errorf("FromContext = %v, want the injected logger", got)
		}
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	if logger.Component() != ComponentApp {
		t.Errorf("fallback component = %q, want %q", logger.Component(), ComponentApp)
	}
}

func TestLogErrorRetagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, Level: slog.LevelError})
	ctx := context.WithValue(context.Background(), ctxKey{}, logger)

	LogError(ctx, "Request failed", errors.New("boom"), ComponentHTTP, OpCreate,
		NewFields().WithRequestID("req_abc"))

	out := buf.String()
	for _, want := range []string{"component=" + ComponentHTTP, "error=boom", "operation=" + OpCreate, "request_id=req_abc"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
}
