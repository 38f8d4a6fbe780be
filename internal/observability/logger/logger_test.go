package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/collections/internal/auditcontext"
	"github.com/smallbiznis/collections/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func observed(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestWithContextOmitsMissingFields(t *testing.T) {
	logs := observed(t)

	FromContext(context.Background()).Info("bare")
	assert.Empty(t, logs.All()[0].ContextMap())

	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(7))
	ctx = auditcontext.WithRequestID(ctx, "req-1")
	ctx = auditcontext.WithActor(ctx, auditcontext.ActorTypeAccount, "900")
	FromContext(ctx).Info("scoped")

	fields := logs.All()[1].ContextMap()
	assert.Equal(t, "7", fields["org_id"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "900", fields["actor_id"])
	assert.NotContains(t, fields, "trace_id")
}

func TestGinMiddlewareLogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logs := observed(t)

	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		ErrorClassifier: func(error) (string, string) { return "persistence_failed", "persistence_failed" },
	}))
	r.POST("/api/invoices/generate", func(c *gin.Context) {
		c.Set("invoice_period", "2024-12")
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/invoices/generate", nil)
	req.Header.Set(HeaderRequestID, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc", w.Header().Get(HeaderRequestID))
	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "abc", fields["request_id"])
	assert.Equal(t, "2024-12", fields["invoice_period"])
	assert.Equal(t, "persistence_failed", fields["error_type"])
	assert.Equal(t, "/api/invoices/generate", fields["route"])
}

func TestGinMiddlewareGeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observed(t)

	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestRequestLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, requestLevel("/health", 200, ""))
	assert.Equal(t, zapcore.InfoLevel, requestLevel("/api/stalls", 400, "validation_error"))
	assert.Equal(t, zapcore.WarnLevel, requestLevel("/api/stalls", 404, "not_found"))
	assert.Equal(t, zapcore.ErrorLevel, requestLevel("/api/stalls", 500, ""))
}

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), 50*time.Millisecond)

	sql := func() (string, int64) { return `INSERT INTO "invoices" ("id") VALUES ($1)`, 1 }
	l.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	l.Trace(context.Background(), time.Now(), sql, nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "invoices", entries[0].ContextMap()["table"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	assert.Len(t, logs.All(), 2)
}

func TestGormLoggerDropsBoundValues(t *testing.T) {
	var filter gorm.ParamsFilter = NewGormLogger(zap.NewNop(), 0)
	sql, params := filter.ParamsFilter(context.Background(), "SELECT * FROM renters WHERE name = ?", "Ana")
	assert.Equal(t, "SELECT * FROM renters WHERE name = ?", sql)
	assert.Empty(t, params)
}

func TestTableFromSQL(t *testing.T) {
	assert.Equal(t, "stalls", tableFromSQL(`SELECT * FROM "stalls" WHERE org_id = $1`))
	assert.Equal(t, "generated_invoices", tableFromSQL("update generated_invoices set x = 1"))
	assert.Empty(t, tableFromSQL("SELECT 1"))
}
