package expose

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/terminatorcore/terminator/log"
	"github.com/terminatorcore/terminator/refx"
	"github.com/terminatorcore/terminator/uid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestID 返回 Observe 放入上下文的请求 id
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type ObserveOptions struct {
	// 指标名前缀和 tracer 名称
	Name          string `cfg:"name" def:"http"`
	EnableMetrics bool   `cfg:"enableMetrics" def:"true"`
	EnableTracing bool   `cfg:"enableTracing" def:"true"`
	EnableLogging bool   `cfg:"enableLogging"`
	// 请求 id 生成器，为空时使用不带连字符的 uuid v4
	RequestID *refx.TypeOptions `cfg:"requestId"`
}

// ObserveMetrics 按路由、方法和状态码统计的请求指标
type ObserveMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewObserveMetrics 创建并注册指标，reg 为空时注册到默认 registry
// 同名指标已注册时复用已有的 collector
func NewObserveMetrics(name string, reg prometheus.Registerer) (*ObserveMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: name + "_requests_total",
			Help: "Total number of http requests",
		},
		[]string{"route", "method", "status"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    name + "_request_duration_seconds",
			Help:    "Duration of http requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"route", "method"},
	)

	m := &ObserveMetrics{}
	if err := reg.Register(requests); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, errors.Wrap(err, "failed to register request counter")
		}
		requests = are.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := reg.Register(duration); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, errors.Wrap(err, "failed to register request histogram")
		}
		duration = are.ExistingCollector.(*prometheus.HistogramVec)
	}
	m.requests, m.duration = requests, duration
	return m, nil
}

type Observer struct {
	metrics *ObserveMetrics
	tracer  trace.Tracer
	ids     uid.StrGenerator
	logger  log.Logger
}

// NewObserverWithOptions 指标注册到 reg，reg 为空时使用默认 registry
func NewObserverWithOptions(options *ObserveOptions, reg prometheus.Registerer) (*Observer, error) {
	if options == nil {
		options = &ObserveOptions{Name: "http", EnableMetrics: true, EnableTracing: true}
	}
	name := options.Name
	if name == "" {
		name = "http"
	}

	ids, err := uid.NewStrGeneratorWithOptions(options.RequestID)
	if err != nil {
		return nil, err
	}
	o := &Observer{ids: ids}
	if options.EnableMetrics {
		if o.metrics, err = NewObserveMetrics(name, reg); err != nil {
			return nil, err
		}
	}
	if options.EnableTracing {
		o.tracer = otel.Tracer(fmt.Sprintf("expose.%s", name))
	}
	if options.EnableLogging {
		o.logger = log.Default().WithGroup("observe")
	}
	return o, nil
}

func (o *Observer) SetLogger(logger log.Logger) {
	o.logger = logger
}

// Middleware 为请求补充请求 id，记录指标、span 和访问日志
func (o *Observer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = o.ids.Generate()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		ctx = log.ContextWith(ctx, "requestId", id)

		var span trace.Span
		if o.tracer != nil {
			ctx, span = o.tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
					attribute.String("request.id", id),
				),
			)
			defer span.End()
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		r = r.WithContext(ctx)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		duration := time.Since(start)

		if span != nil {
			span.SetName(r.Method + " " + route)
			span.SetAttributes(attribute.Int("http.status_code", status), attribute.String("http.route", route))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
		}
		if o.metrics != nil {
			o.metrics.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
			o.metrics.duration.WithLabelValues(route, r.Method).Observe(duration.Seconds())
		}
		if o.logger != nil {
			o.logger.InfoContext(ctx, "request", "method", r.Method, "route", route, "status", status,
				"duration", duration)
		}
	})
}
