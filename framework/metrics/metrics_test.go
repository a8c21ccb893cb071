package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-injector/framework/container"
	"github.com/km-arc/go-injector/framework/metrics"
)

type Clock struct{}

func newObserved(t *testing.T) (*container.Container, *metrics.Collector) {
	t.Helper()
	c := container.New()
	_, err := container.Register[*Clock](c)
	require.NoError(t, err)
	m := metrics.New(nil)
	m.Observe(c)
	return c, m
}

func TestCollector_CountsMakes(t *testing.T) {
	c, m := newObserved(t)
	c.Share(container.TypeOf[*Clock]())

	for range 3 {
		_, err := c.Make(container.TypeOf[*Clock]())
		require.NoError(t, err)
	}
	_, err := c.Make("Missing")
	require.Error(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(m.Registry(), "injector_make_duration_seconds"))

	expected := `
# HELP injector_instances_built_total Instances constructed, by requested type.
# TYPE injector_instances_built_total counter
injector_instances_built_total{type="*github.com/km-arc/go-injector/framework/metrics_test.Clock"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "injector_instances_built_total"))

	expected = `
# HELP injector_make_total Make calls by result and error kind.
# TYPE injector_make_total counter
injector_make_total{kind="",result="built"} 1
injector_make_total{kind="",result="shared"} 2
injector_make_total{kind="not_constructible",result="error"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "injector_make_total"))
}

func TestCollector_Handler(t *testing.T) {
	c, m := newObserved(t)
	_, err := c.Make(container.TypeOf[*Clock]())
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "injector_make_total")
}
