package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	obscontext "github.com/smallbiznis/catalog/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// Catalog statement classes reported in the catalog_op field.
const (
	CatalogOpExpand      = "expand"
	CatalogOpFacetCounts = "facet_counts"
	CatalogOpFacetRange  = "facet_range"
	CatalogOpScoped      = "scoped_products"
)

const assignmentsTable = "PRODUCT_PROPERTIES"

// GormLoggerConfig configures SQL statement logging.
type GormLoggerConfig struct {
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
}

// ParseGormLevel maps DATABASE_LOG_LEVEL values onto gorm levels. Unknown
// values fall back to warn.
func ParseGormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent", "off":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// GormLogger writes gorm statements through the request scoped zap logger,
// tagging catalog narrowing and facet queries.
type GormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func NewGormLogger(cfg GormLoggerConfig) *GormLogger {
	return &GormLogger{
		level:         cfg.Level,
		slowThreshold: cfg.SlowThreshold,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	copy := *l
	copy.level = level
	return &copy
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		FromContext(ctx).Info(msg, l.messageFields(data)...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		FromContext(ctx).Warn(msg, l.messageFields(data)...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		FromContext(ctx).Error(msg, l.messageFields(data)...)
	}
}

// Trace logs failed statements as errors, slow ones as warnings and the rest
// at debug when the level is info. Missing rows are expected on lookups and
// never logged as failures.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && l.level >= gormlogger.Error:
		l.logQuery(ctx, fc, elapsed, err, zap.ErrorLevel)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		l.logQuery(ctx, fc, elapsed, nil, zap.WarnLevel)
	case l.level >= gormlogger.Info:
		l.logQuery(ctx, fc, elapsed, nil, zap.DebugLevel)
	}
}

// ParamsFilter drops bound values; filter values and product names stay out of logs.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

func (l *GormLogger) messageFields(data []interface{}) []zap.Field {
	fields := []zap.Field{zap.String("component", "gorm")}
	if len(data) > 0 {
		fields = append(fields, zap.Any("data", data))
	}
	return fields
}

func (l *GormLogger) logQuery(ctx context.Context, fc func() (string, int64), elapsed time.Duration, err error, level zapcore.Level) {
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("component", "gorm"),
		zap.String("sql", strings.TrimSpace(sql)),
		zap.String("operation", operationFromSQL(sql)),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	}
	if op, depth := catalogStatement(sql); op != "" {
		fields = append(fields, zap.String("catalog_op", op), zap.Int("narrow_depth", depth))
	}
	if filters := obscontext.FilterCountFromContext(ctx); filters > 0 {
		fields = append(fields, zap.Int("filter_count", filters))
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows_affected", rows))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}

	log := FromContext(ctx)
	switch level {
	case zap.ErrorLevel:
		log.Error("gorm.query", fields...)
	case zap.WarnLevel:
		log.Warn("gorm.query", fields...)
	default:
		log.Debug("gorm.query", fields...)
	}
}

// catalogStatement classifies reads over product assignments. depth is the
// number of narrowing steps nested into the statement.
func catalogStatement(sql string) (string, int) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(strings.NewReplacer("`", "", `"`, "").Replace(sql)), " "))
	depth := strings.Count(normalized, "FROM "+assignmentsTable)
	if depth == 0 || operationFromSQL(sql) != "SELECT" {
		return "", 0
	}

	head := normalized
	if i := strings.Index(head, " WHERE "); i >= 0 {
		head = head[:i]
	}
	if !strings.Contains(head, "FROM "+assignmentsTable) {
		return CatalogOpScoped, depth
	}
	switch {
	case strings.Contains(normalized, "GROUP BY"):
		return CatalogOpFacetCounts, depth - 1
	case strings.Contains(head, "MIN("):
		return CatalogOpFacetRange, depth - 1
	default:
		return CatalogOpExpand, depth - 1
	}
}

func operationFromSQL(sql string) string {
	normalized := strings.ToUpper(strings.TrimSpace(sql))
	for _, token := range strings.Fields(normalized) {
		token = strings.Trim(token, "();")
		switch token {
		case "SELECT", "INSERT", "UPDATE", "DELETE":
			return token
		case "WITH":
			continue
		}
	}
	return "UNKNOWN"
}

var _ gormlogger.Interface = (*GormLogger)(nil)
