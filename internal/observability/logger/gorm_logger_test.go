package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	obscontext "github.com/smallbiznis/catalog/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

const facetCountsSQL = `SELECT pp.value_uid AS value_uid, COUNT(DISTINCT pp.product_uid) AS total FROM "product_properties" pp ` +
	`JOIN property_values pv ON pv.property_uid = pp.property_uid AND pv.value_uid = pp.value_uid ` +
	`WHERE pp.property_uid = 'color' AND pp.product_uid IN (SELECT "uid" FROM "products" WHERE uid IN ` +
	`(SELECT DISTINCT "pp"."product_uid" FROM product_properties pp WHERE pp.property_uid = 'weight' AND pp.int_value >= 10)) ` +
	`GROUP BY "pp"."value_uid"`

func observeGlobal(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestCatalogStatement(t *testing.T) {
	cases := []struct {
		name  string
		sql   string
		op    string
		depth int
	}{
		{"facet counts", facetCountsSQL, CatalogOpFacetCounts, 1},
		{
			"facet range",
			`SELECT MIN(pp.int_value) AS min_value, MAX(pp.int_value) AS max_value FROM product_properties pp WHERE pp.property_uid = 'weight' AND pp.product_uid IN (SELECT uid FROM products)`,
			CatalogOpFacetRange, 0,
		},
		{
			"scoped count",
			`SELECT count(*) FROM "products" WHERE uid IN (SELECT DISTINCT pp.product_uid FROM product_properties pp WHERE pp.product_uid IN (SELECT DISTINCT pp.product_uid FROM product_properties pp WHERE 1=1))`,
			CatalogOpScoped, 2,
		},
		{
			"expand",
			"SELECT pp.id, pp.product_uid\n\t\t FROM product_properties pp\n\t\t JOIN properties p ON p.uid = pp.property_uid\n\t\t WHERE pp.product_uid IN ('p1')",
			CatalogOpExpand, 0,
		},
		{"unrelated read", `SELECT * FROM "properties" WHERE uid = 'color'`, "", 0},
		{"assignment write", `DELETE FROM product_properties WHERE product_uid = 'p1'`, "", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			op, depth := catalogStatement(tc.sql)
			assert.Equal(t, tc.op, op)
			assert.Equal(t, tc.depth, depth)
		})
	}
}

func TestGormLoggerTagsCatalogQueries(t *testing.T) {
	logs := observeGlobal(t)
	l := NewGormLogger(GormLoggerConfig{Level: gormlogger.Info, SlowThreshold: time.Second})

	ctx := obscontext.WithFilterCount(context.Background(), 1)
	l.Trace(ctx, time.Now(), func() (string, int64) { return facetCountsSQL, 2 }, nil)

	entries := logs.FilterMessage("gorm.query").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, CatalogOpFacetCounts, fields["catalog_op"])
	assert.Equal(t, int64(1), fields["narrow_depth"])
	assert.Equal(t, int64(1), fields["filter_count"])
	assert.Equal(t, "SELECT", fields["operation"])
}

func TestGormLoggerSlowThreshold(t *testing.T) {
	logs := observeGlobal(t)
	l := NewGormLogger(GormLoggerConfig{Level: gormlogger.Warn, SlowThreshold: 10 * time.Millisecond})
	sql := func() (string, int64) { return facetCountsSQL, 2 }

	l.Trace(context.Background(), time.Now(), sql, nil)
	assert.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	entries := logs.FilterMessage("gorm.query").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestGormLoggerErrors(t *testing.T) {
	logs := observeGlobal(t)
	l := NewGormLogger(GormLoggerConfig{Level: gormlogger.Error})
	sql := func() (string, int64) { return `SELECT * FROM products WHERE uid = 'p9'`, 0 }

	l.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now(), sql, errors.New("too many SQL variables"))
	entries := logs.FilterMessage("gorm.query").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	assert.Equal(t, 1, logs.Len())
}

func TestParseGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, ParseGormLevel("off"))
	assert.Equal(t, gormlogger.Error, ParseGormLevel(" ERROR "))
	assert.Equal(t, gormlogger.Info, ParseGormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, ParseGormLevel(""))
	assert.Equal(t, gormlogger.Warn, ParseGormLevel("verbose"))
}
