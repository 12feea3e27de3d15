package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestIdentityMiddleware(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		want   string
	}{
		{"anonymous", "", ""},
		{"user", "42", "42"},
		{"blank header", "   ", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var got string
			h := IdentityMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = UserID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(XUserId, tc.header)
			}

			// when
			h.ServeHTTP(httptest.NewRecorder(), req)

			// then
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRequestIDInjector(t *testing.T) {
	t.Run("keeps incoming id", func(t *testing.T) {
		var got string
		h := RequestIDInjector(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = GetRequestID(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(XRequestId, "abc")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, "abc", got)
		assert.Equal(t, "abc", rec.Header().Get(XRequestId))
	})

	t.Run("generates id", func(t *testing.T) {
		var got string
		h := RequestIDInjector(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = GetRequestID(r.Context())
		}))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, got)
		assert.Equal(t, got, rec.Header().Get(XRequestId))
	})
}

func TestLatency(t *testing.T) {
	t.Run("delays the request", func(t *testing.T) {
		h := Latency(30 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		rec := httptest.NewRecorder()

		start := time.Now()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("gives up when the client leaves", func(t *testing.T) {
		called := false
		h := Latency(time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))

		assert.False(t, called)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(testLogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}

func TestQueryParsers(t *testing.T) {
	t.Run("defaults when missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		page, ok := QueryIntGte(req, rec, testLogger, "page", 0, 0)
		require.True(t, ok)
		size, ok := QueryIntGt(req, rec, testLogger, "size", 12, 0)
		require.True(t, ok)
		cat, ok := QueryInt64(req, rec, testLogger, "categoryId")
		require.True(t, ok)
		clothing, ok := QueryBool(req, rec, testLogger, "clothing")
		require.True(t, ok)
		minPrice, ok := QueryDecimal(req, rec, testLogger, "minPrice")
		require.True(t, ok)

		assert.Equal(t, 0, page)
		assert.Equal(t, 12, size)
		assert.Nil(t, cat)
		assert.Nil(t, clothing)
		assert.Nil(t, minPrice)
	})

	t.Run("parses values", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/?page=2&size=5&categoryId=3&clothing=TRUE&minPrice=12.50", nil)

		page, _ := QueryIntGte(req, rec, testLogger, "page", 0, 0)
		size, _ := QueryIntGt(req, rec, testLogger, "size", 12, 0)
		cat, _ := QueryInt64(req, rec, testLogger, "categoryId")
		clothing, _ := QueryBool(req, rec, testLogger, "clothing")
		minPrice, _ := QueryDecimal(req, rec, testLogger, "minPrice")

		assert.Equal(t, 2, page)
		assert.Equal(t, 5, size)
		assert.Equal(t, int64(3), *cat)
		assert.True(t, *clothing)
		assert.True(t, minPrice.Equal(decimal.RequireFromString("12.5")))
	})

	testCases := []struct {
		name  string
		query string
		parse func(r *http.Request, w http.ResponseWriter) bool
	}{
		{"negative page", "page=-1", func(r *http.Request, w http.ResponseWriter) bool {
			_, ok := QueryIntGte(r, w, testLogger, "page", 0, 0)
			return ok
		}},
		{"zero size", "size=0", func(r *http.Request, w http.ResponseWriter) bool {
			_, ok := QueryIntGt(r, w, testLogger, "size", 12, 0)
			return ok
		}},
		{"bad category", "categoryId=abc", func(r *http.Request, w http.ResponseWriter) bool {
			_, ok := QueryInt64(r, w, testLogger, "categoryId")
			return ok
		}},
		{"bad flag", "clothing=maybe", func(r *http.Request, w http.ResponseWriter) bool {
			_, ok := QueryBool(r, w, testLogger, "clothing")
			return ok
		}},
		{"bad price", "maxPrice=cheap", func(r *http.Request, w http.ResponseWriter) bool {
			_, ok := QueryDecimal(r, w, testLogger, "maxPrice")
			return ok
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)

			ok := tc.parse(req, rec)

			assert.False(t, ok)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestParseID(t *testing.T) {
	testCases := []struct {
		name   string
		value  string
		wantID int64
		wantOK bool
	}{
		{"valid", "17", 17, true},
		{"zero", "0", 0, false},
		{"negative", "-3", 0, false},
		{"not a number", "abc", 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.SetPathValue("id", tc.value)
			rec := httptest.NewRecorder()

			id, ok := ParseID(rec, req, testLogger)

			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantID, id)
		})
	}
}

type priced struct {
	Name  string          `validate:"required"`
	Price decimal.Decimal `validate:"gte=0"`
}

func TestRespondValidationError(t *testing.T) {
	t.Run("validator errors", func(t *testing.T) {
		err := NewValidator().Struct(priced{Price: decimal.RequireFromString("-1")})
		rec := httptest.NewRecorder()

		RespondValidationError(rec, testLogger, err)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body map[string]map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "failed on rule: required", body["validation_errors"]["Name"])
		assert.Equal(t, "failed on rule: gte", body["validation_errors"]["Price"])
	})

	t.Run("other errors", func(t *testing.T) {
		rec := httptest.NewRecorder()

		RespondValidationError(rec, testLogger, errors.New("bad"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"bad"}`, rec.Body.String())
	})
}

func TestNewValidator_AcceptsValidDecimal(t *testing.T) {
	assert.NoError(t, NewValidator().Struct(priced{Name: "Mug", Price: decimal.RequireFromString("12.99")}))
}
