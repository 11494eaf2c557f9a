package logger

import (
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"time"

	"github.com/taskmaster/tracker/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the application's structured logger. Services get a named child
// through Component so every line carries the emitting subsystem.
type Logger struct {
	*zap.SugaredLogger
}

// New builds a logger from configuration
func New(cfg config.LoggerConfig) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var zapConfig zap.Config
	switch cfg.Format {
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "time"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "console", "":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.OutputPaths, zapConfig.ErrorOutputPaths = outputPaths(cfg.Output)

	zapLogger, err := zapConfig.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return NewFromZap(zapLogger), nil
}

func outputPaths(output string) ([]string, []string) {
	switch output {
	case "", "stdout":
		return []string{"stdout"}, []string{"stderr"}
	default:
		return []string{output}, []string{output}
	}
}

// NewFromZap wraps an existing zap logger
func NewFromZap(l *zap.Logger) *Logger {
	return &Logger{SugaredLogger: l.Sugar()}
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return NewFromZap(zap.NewNop())
}

// Component returns a child logger tagged with the subsystem name
func (l *Logger) Component(name string) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.Named(name).With("component", name)}
}

// HTTPRequest describes one served request
type HTTPRequest struct {
	Method    string
	Path      string
	RequestID string
	RemoteIP  string
	Status    int
	Latency   time.Duration
	Err       error
}

// LogHTTPRequest writes one access log line. Server errors log at error
// level and client errors at warn.
func (l *Logger) LogHTTPRequest(req HTTPRequest) {
	fields := []interface{}{
		"method", req.Method,
		"path", req.Path,
		"status_code", req.Status,
		"duration_ms", float64(req.Latency.Microseconds()) / 1000,
		"request_id", req.RequestID,
		"ip", req.RemoteIP,
	}
	if req.Err != nil {
		fields = append(fields, "error", req.Err.Error())
	}

	switch {
	case req.Status >= http.StatusInternalServerError:
		l.Errorw("HTTP request failed", fields...)
	case req.Status >= http.StatusBadRequest:
		l.Warnw("HTTP request rejected", fields...)
	default:
		l.Infow("HTTP request", fields...)
	}
}

// LogUserAction records a state change made by a user
func (l *Logger) LogUserAction(userID, action string, metadata map[string]interface{}) {
	l.Infow("User action", withMetadata(metadata, "user_id", userID, "action", action)...)
}

// LogSecurityEvent records authentication and authorization failures
func (l *Logger) LogSecurityEvent(event, userID, ip string, details map[string]interface{}) {
	l.Warnw("Security event", withMetadata(details, "security_event", event, "user_id", userID, "ip", ip)...)
}

func withMetadata(metadata map[string]interface{}, fields ...interface{}) []interface{} {
	for k, v := range metadata {
		fields = append(fields, k, v)
	}
	return fields
}

// Close flushes buffered entries. Sync on a terminal or pipe reports EINVAL
// or ENOTTY on some platforms; those are ignored.
func (l *Logger) Close() error {
	err := l.SugaredLogger.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}
