package tracing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/termweave/backend/internal/shared/id"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	spanIDKey
)

// Tracer logs span timings for request-scoped operations. Spans are
// written synchronously through zap; there is no exporter.
type Tracer struct {
	service string
	logger  *zap.Logger
}

// New creates a tracer for the named service.
func New(service string, logger *zap.Logger) *Tracer {
	return &Tracer{service: service, logger: logger}
}

// Span measures one operation within a request.
type Span struct {
	tracer    *Tracer
	requestID string
	spanID    string
	parentID  string
	name      string
	start     time.Time
	status    int
	err       error
	tags      []zap.Field
}

// Start opens a span, minting a request id when the context has none.
// Nested calls pick up the parent span from the returned context.
func (t *Tracer) Start(ctx context.Context, name string) (*Span, context.Context) {
	reqID := RequestIDFrom(ctx)
	if reqID == "" {
		reqID = id.NewRequestID().String()
	}
	s := &Span{
		tracer:    t,
		requestID: reqID,
		spanID:    id.NewRequestID().String(),
		parentID:  spanIDFrom(ctx),
		name:      name,
		start:     time.Now(),
	}
	ctx = context.WithValue(ctx, requestIDKey, reqID)
	ctx = context.WithValue(ctx, spanIDKey, s.spanID)
	return s, ctx
}

// RequestID returns the id minted or inherited at Start.
func (s *Span) RequestID() string {
	return s.requestID
}

// Tag attaches a key/value to the span's completion log line.
func (s *Span) Tag(key, value string) {
	s.tags = append(s.tags, zap.String(key, value))
}

// Status records the HTTP status the operation answered with.
func (s *Span) Status(code int) {
	s.status = code
}

// Fail records the error the operation ended with.
func (s *Span) Fail(err error) {
	s.err = err
}

// End logs the span. Failed spans log at warn, the rest at debug.
func (s *Span) End() {
	fields := []zap.Field{
		zap.String("service", s.tracer.service),
		zap.String("request_id", s.requestID),
		zap.String("span_id", s.spanID),
		zap.String("operation", s.name),
		zap.Duration("duration", time.Since(s.start)),
	}
	if s.parentID != "" {
		fields = append(fields, zap.String("parent_id", s.parentID))
	}
	if s.status != 0 {
		fields = append(fields, zap.Int("status", s.status))
	}
	fields = append(fields, s.tags...)

	if s.err != nil {
		s.tracer.logger.Warn("span failed", append(fields, zap.Error(s.err))...)
		return
	}
	s.tracer.logger.Debug("span completed", fields...)
}

// RequestIDFrom returns the request id carried by ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithRequestID returns ctx carrying the given request id.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, requestIDKey, reqID)
}

func spanIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(spanIDKey).(string)
	return v
}
