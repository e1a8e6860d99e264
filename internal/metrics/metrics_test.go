package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGinMiddleware_RecordsErrorsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	before := testutil.ToFloat64(APIErrorCounter.WithLabelValues("GET", "/items/:id", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	after := testutil.ToFloat64(APIErrorCounter.WithLabelValues("GET", "/items/:id", "404"))
	assert.Equal(t, before+1, after)
}

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(LifecycleOperationCounter.WithLabelValues("suspend", "INVALID_STATE"))
	RecordOperation("suspend", errors.New("boom"), "INVALID_STATE")
	assert.Equal(t, before+1, testutil.ToFloat64(LifecycleOperationCounter.WithLabelValues("suspend", "INVALID_STATE")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", Handler())
	RecordRollover("renewed")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "saas_subscription_rollover_total"))
}
