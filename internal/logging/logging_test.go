package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, "debug", "JSON")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithField("operation", "acquire_checkout_id").Info("checkout created")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "acquire_checkout_id", line["operation"])
	assert.Equal(t, "checkout created", line["msg"])
	assert.Equal(t, "info", line["level"])
}

func TestNewWithOutput_TextAndLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, "chatty", "text")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	_, ok := l.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)

	l.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, hook := test.NewNullLogger()

	r := gin.New()
	r.Use(GinLogger(logger))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/conflict", func(c *gin.Context) { c.Status(http.StatusConflict) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	cases := []struct {
		path  string
		level logrus.Level
		msg   string
	}{
		{"/ok?x=1", logrus.InfoLevel, "Request completed"},
		{"/conflict", logrus.WarnLevel, "Client error"},
		{"/boom", logrus.ErrorLevel, "Server error"},
	}
	for _, tc := range cases {
		hook.Reset()
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, tc.path, nil)
		r.ServeHTTP(w, req)

		entry := hook.LastEntry()
		require.NotNil(t, entry, tc.path)
		assert.Equal(t, tc.level, entry.Level, tc.path)
		assert.Equal(t, tc.msg, entry.Message)
		assert.Equal(t, tc.path, entry.Data["path"])
	}
}
