package expose

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/terminatorcore/terminator/errs"
	"github.com/terminatorcore/terminator/log/logger"
	"github.com/terminatorcore/terminator/rdb"
	"github.com/terminatorcore/terminator/service"
)

type Track struct {
	Id   int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"column:name;not null" json:"name"`
	Sort *int64 `gorm:"column:sort" json:"sort,omitempty"`
}

func (Track) TableName() string { return "track" }

type trackResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    Track  `json:"data"`
}

type listResponse struct {
	Code int               `json:"code"`
	Data ListResult[Track] `json:"data"`
}

func newRouter(t *testing.T, logs *bytes.Buffer) (chi.Router, *Observer) {
	db, err := rdb.NewGormWithOptions(&rdb.SQLOptions{
		Driver:   "sqlite3",
		Database: filepath.Join(t.TempDir(), "expose.db"),
		MaxConns: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&Track{}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	l, err := logger.NewSLogWithWriter(logs, &logger.SLogOptions{Level: "info", Format: "text"})
	if err != nil {
		t.Fatal(err)
	}

	obs, err := NewObserverWithOptions(&ObserveOptions{Name: "test", EnableMetrics: true, EnableTracing: true}, prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	r.Use(obs.Middleware)
	h := NewHandler[Track]("api/v1/track/", service.NewBaseService[Track](db))
	h.SetLogger(l)
	h.Mount(r)
	return r, obs
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

func TestHandler(t *testing.T) {
	Convey("HTTP 增删改查", t, func() {
		var logs bytes.Buffer
		r, obs := newRouter(t, &logs)

		w := do(r, http.MethodPost, "/api/v1/track", `{"name":"walk"}`)
		So(w.Code, ShouldEqual, http.StatusCreated)
		So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
		So(w.Header().Get(RequestIDHeader), ShouldHaveLength, 32)
		created := decode[trackResponse](w)
		So(created.Code, ShouldEqual, 0)
		So(created.Data.Id, ShouldEqual, 1)

		Convey("查询", func() {
			w := do(r, http.MethodGet, "/api/v1/track/1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[trackResponse](w).Data.Name, ShouldEqual, "walk")

			w = do(r, http.MethodGet, "/api/v1/track/99", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			resp := decode[trackResponse](w)
			So(resp.Code, ShouldEqual, errs.CodeNotFound)
			So(resp.Message, ShouldContainSubstring, "not found")
			So(logs.String(), ShouldContainSubstring, "kind=business")

			So(testutil.ToFloat64(obs.metrics.requests.WithLabelValues("/api/v1/track/{id}", "GET", "200")), ShouldEqual, 1)
			So(testutil.ToFloat64(obs.metrics.requests.WithLabelValues("/api/v1/track/{id}", "GET", "404")), ShouldEqual, 1)
		})

		Convey("列表", func() {
			So(do(r, http.MethodPost, "/api/v1/track", `{"name":"run"}`).Code, ShouldEqual, http.StatusCreated)

			w := do(r, http.MethodGet, "/api/v1/track?page=1&size=1&orderBy=id+desc", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			list := decode[listResponse](w)
			So(list.Data.Total, ShouldEqual, 2)
			So(list.Data.Size, ShouldEqual, 1)
			So(list.Data.Items, ShouldHaveLength, 1)
			So(list.Data.Items[0].Name, ShouldEqual, "run")

			w = do(r, http.MethodGet, "/api/v1/track?name=walk", "")
			list = decode[listResponse](w)
			So(list.Data.Total, ShouldEqual, 1)
			So(list.Data.Page, ShouldEqual, 1)
			So(list.Data.Size, ShouldEqual, service.DefaultPageSize)

			So(do(r, http.MethodGet, "/api/v1/track?page=x", "").Code, ShouldEqual, http.StatusBadRequest)
			w = do(r, http.MethodGet, "/api/v1/track?page=9223372036854775807&size=1000", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[trackResponse](w).Code, ShouldEqual, errs.CodeInvalidParam)
			So(do(r, http.MethodGet, "/api/v1/track?password=1", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("更新和删除", func() {
			w := do(r, http.MethodPut, "/api/v1/track/1", `{"name":"run"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[trackResponse](w).Data.Id, ShouldEqual, 1)
			So(decode[trackResponse](do(r, http.MethodGet, "/api/v1/track/1", "")).Data.Name, ShouldEqual, "run")

			So(do(r, http.MethodPut, "/api/v1/track/1", `{"name":`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(r, http.MethodPut, "/api/v1/track/1", `{"color":"red"}`).Code, ShouldEqual, http.StatusBadRequest)

			w = do(r, http.MethodPatch, "/api/v1/track/1", `{"sort":3}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			patched := decode[trackResponse](w).Data
			So(patched.Name, ShouldEqual, "run")
			So(*patched.Sort, ShouldEqual, int64(3))

			w = do(r, http.MethodPut, "/api/v1/track/1", `{"name":"walk"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[trackResponse](do(r, http.MethodGet, "/api/v1/track/1", "")).Data.Sort, ShouldBeNil)

			So(do(r, http.MethodPatch, "/api/v1/track/1", `{"id":2}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(r, http.MethodPatch, "/api/v1/track/1", `{"color":"red"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(r, http.MethodPatch, "/api/v1/track/1", `[1]`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(r, http.MethodPatch, "/api/v1/track/9", `{"name":"x"}`).Code, ShouldEqual, http.StatusNotFound)

			So(do(r, http.MethodDelete, "/api/v1/track/1", "").Code, ShouldEqual, http.StatusOK)
			So(do(r, http.MethodDelete, "/api/v1/track/1", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("沿用请求中的 request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/track/1", nil)
			req.Header.Set(RequestIDHeader, "req-1")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			So(w.Header().Get(RequestIDHeader), ShouldEqual, "req-1")
		})
	})
}

type failingService struct {
	err error
}

func (s *failingService) Get(ctx context.Context, id any) (*Track, error) { return nil, s.err }
func (s *failingService) List(ctx context.Context, options *service.ListOptions) ([]Track, int64, error) {
	return nil, 0, s.err
}
func (s *failingService) Create(ctx context.Context, v *Track) error { return s.err }
func (s *failingService) Update(ctx context.Context, id any, v *Track) error { return s.err }
func (s *failingService) Patch(ctx context.Context, id any, fields map[string]any) (*Track, error) {
	return nil, s.err
}
func (s *failingService) Delete(ctx context.Context, id any) error { return s.err }

func TestErrorMapping(t *testing.T) {
	Convey("错误分类对应的状态码", t, func() {
		So(StatusOf(errs.NewBusinessError("bad", errs.CodeInvalidParam)), ShouldEqual, http.StatusBadRequest)
		So(StatusOf(errs.NewBusinessError("missing", errs.CodeNotFound)), ShouldEqual, http.StatusNotFound)
		So(StatusOf(errs.NewInfoError("noop", 0)), ShouldEqual, http.StatusOK)
		So(StatusOf(errs.NewServiceError("down", 0)), ShouldEqual, http.StatusInternalServerError)
		So(StatusOf(context.Canceled), ShouldEqual, http.StatusInternalServerError)
		So(StatusOf(errors.Join(context.Canceled, errs.NewBusinessError("missing", errs.CodeNotFound))), ShouldEqual, http.StatusNotFound)
		So(StatusOf(fmt.Errorf("%w: %w", context.Canceled, errs.NewBusinessError("bad", 0))), ShouldEqual, http.StatusBadRequest)
	})

	Convey("服务异常不暴露内部原因", t, func() {
		var logs bytes.Buffer
		l, err := logger.NewSLogWithWriter(&logs, &logger.SLogOptions{Level: "info"})
		So(err, ShouldBeNil)

		h := NewHandler[Track]("/api/v1/track", &failingService{
			err: errs.WrapService(context.DeadlineExceeded, "db timeout", 0),
		})
		h.SetLogger(l)
		r := chi.NewRouter()
		h.Mount(r)

		w := do(r, http.MethodGet, "/api/v1/track/1", "")
		So(w.Code, ShouldEqual, http.StatusInternalServerError)
		resp := decode[trackResponse](w)
		So(resp.Code, ShouldEqual, errs.CodeInternal)
		So(resp.Message, ShouldEqual, "internal error")
		So(logs.String(), ShouldContainSubstring, "level=ERROR")
		So(logs.String(), ShouldContainSubstring, "deadline exceeded")

		h = NewHandler[Track]("/api/v1/track", &failingService{err: errs.NewInfoError("nothing changed", 7)})
		h.SetLogger(l)
		r = chi.NewRouter()
		h.Mount(r)
		w = do(r, http.MethodDelete, "/api/v1/track/1", "")
		So(w.Code, ShouldEqual, http.StatusOK)
		resp = decode[trackResponse](w)
		So(resp.Code, ShouldEqual, 7)
		So(resp.Message, ShouldEqual, "nothing changed")

		h = NewHandler[Track]("/api/v1/track", &failingService{err: errs.NewBusinessError("name required", 0)})
		h.SetLogger(l)
		r = chi.NewRouter()
		h.Mount(r)
		w = do(r, http.MethodDelete, "/api/v1/track/1", "")
		So(w.Code, ShouldEqual, http.StatusBadRequest)
		resp = decode[trackResponse](w)
		So(resp.Code, ShouldEqual, errs.CodeInvalidParam)
		So(resp.Message, ShouldEqual, "name required")
	})
}

func TestObserveMetricsReuse(t *testing.T) {
	Convey("重复注册复用已有指标", t, func() {
		reg := prometheus.NewRegistry()
		m1, err := NewObserveMetrics("dup", reg)
		So(err, ShouldBeNil)
		m2, err := NewObserveMetrics("dup", reg)
		So(err, ShouldBeNil)
		So(m2.requests, ShouldEqual, m1.requests)
	})
}

func TestObserverRequestContext(t *testing.T) {
	Convey("请求 id 写入上下文和日志字段", t, func() {
		obs, err := NewObserverWithOptions(&ObserveOptions{Name: "ctx"}, prometheus.NewRegistry())
		So(err, ShouldBeNil)

		var id string
		var fields []any
		h := obs.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id = RequestID(r.Context())
			fields = logger.ContextFields(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "req-2")
		h.ServeHTTP(httptest.NewRecorder(), req)

		So(id, ShouldEqual, "req-2")
		So(fields, ShouldResemble, []any{"requestId", "req-2"})
		So(RequestID(context.Background()), ShouldEqual, "")
	})
}
