package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("endpoint", "/catalog"),
		attribute.String("product_uid", "p-1"),
		attribute.String("sort", "name"),
	)
	require.Len(t, attrs, 2)
	keys := []attribute.Key{attrs[0].Key, attrs[1].Key}
	assert.Contains(t, keys, attribute.Key("endpoint"))
	assert.Contains(t, keys, attribute.Key("sort"))
}

func TestRecordersTolerateNilMetrics(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordCatalogQuery(ctx, "uid", true)
		m.RecordFacetRequest(ctx, false)
		m.RecordWrite(ctx, "product", "create")
		m.RecordRateLimitAllowed(ctx, "/catalog")
		m.RecordRateLimitDenied(ctx, "/catalog", "rate")
	})
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "catalog"}, noop.NewMeterProvider())
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.RecordCatalogQuery(context.Background(), "name", false)
	})
}
