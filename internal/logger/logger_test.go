package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	t.Cleanup(Replace(zap.New(core)))
	return logs
}

func TestInit(t *testing.T) {
	t.Cleanup(Replace(nil))

	for _, env := range []string{"production", "development", ""} {
		t.Run("env="+env, func(t *testing.T) {
			Init(env)
			require.NotNil(t, L())
			assert.Equal(t, env != "production", L().Core().Enabled(zapcore.DebugLevel))
		})
	}
}

func TestL_InitialisesOnDemand(t *testing.T) {
	t.Cleanup(Replace(nil))
	t.Setenv("APP_ENV", "production")

	assert.NotNil(t, L())
	assert.False(t, L().Core().Enabled(zapcore.DebugLevel))
}

func TestReplace(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	inner, innerLogs := observer.New(zapcore.DebugLevel)
	restore := Replace(zap.New(inner))
	L().Debug("swapped")
	restore()
	L().Debug("restored")

	assert.Equal(t, 1, innerLogs.FilterMessage("swapped").Len())
	assert.Equal(t, 0, innerLogs.FilterMessage("restored").Len())
	assert.Equal(t, 1, logs.FilterMessage("restored").Len())
}

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFrom(ctx))
	assert.Empty(t, SessionIDFrom(ctx))

	ctx = WithSessionID(WithRequestID(ctx, "req-1"), "sess-9")
	assert.Equal(t, "req-1", RequestIDFrom(ctx))
	assert.Equal(t, "sess-9", SessionIDFrom(ctx))
}

func TestFromCtx(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want map[string]any
	}{
		{
			name: "Bare context",
			ctx:  context.Background(),
			want: map[string]any{},
		},
		{
			name: "Request only",
			ctx:  WithRequestID(context.Background(), "req-1"),
			want: map[string]any{"request_id": "req-1"},
		},
		{
			name: "Request and cart session",
			ctx:  WithSessionID(WithRequestID(context.Background(), "req-1"), "sess-9"),
			want: map[string]any{"request_id": "req-1", "session_id": "sess-9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observe(t, zapcore.InfoLevel)

			FromCtx(tt.ctx).Info("cart viewed")

			entries := logs.TakeAll()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].ContextMap())
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	t.Run("Echoes the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set("X-Request-ID", "abc")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		assert.Equal(t, "abc", seen)
		assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
	})

	t.Run("Generates one when missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products", nil))

		assert.Len(t, seen, 36)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	})
}

func TestLoggingMiddleware(t *testing.T) {
	t.Run("Records the written status", func(t *testing.T) {
		logs := observe(t, zapcore.InfoLevel)
		h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))

		req := httptest.NewRequest(http.MethodPost, "/cart/submit", nil)
		h.ServeHTTP(httptest.NewRecorder(), req.WithContext(WithSessionID(req.Context(), "sess-9")))

		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "incoming request", entries[0].Message)
		assert.Equal(t, int64(http.StatusConflict), fields["status"])
		assert.Equal(t, "/cart/submit", fields["path"])
		assert.Equal(t, "POST", fields["method"])
		assert.Equal(t, "sess-9", fields["session_id"])
	})

	t.Run("Defaults to 200", func(t *testing.T) {
		logs := observe(t, zapcore.InfoLevel)
		h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	})

	t.Run("Hijack needs a hijackable writer", func(t *testing.T) {
		rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
		_, _, err := rec.Hijack()
		assert.Error(t, err)
		assert.Equal(t, http.StatusOK, rec.status)
	})
}

func TestSync(t *testing.T) {
	observe(t, zapcore.InfoLevel)
	assert.NotPanics(t, Sync)
}
