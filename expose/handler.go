package expose

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/terminatorcore/terminator/errs"
	"github.com/terminatorcore/terminator/log"
	"github.com/terminatorcore/terminator/service"
)

// Service Handler 依赖的增删改查接口，*service.BaseService 实现了它
type Service[T any] interface {
	Get(ctx context.Context, id any) (*T, error)
	List(ctx context.Context, options *service.ListOptions) ([]T, int64, error)
	Create(ctx context.Context, v *T) error
	Update(ctx context.Context, id any, v *T) error
	Patch(ctx context.Context, id any, fields map[string]any) (*T, error)
	Delete(ctx context.Context, id any) error
}

// 不作为过滤条件的查询参数
var reservedParams = map[string]bool{"page": true, "size": true, "orderBy": true}

type Handler[T any] struct {
	prefix string
	svc    Service[T]
	logger log.Logger
}

func NewHandler[T any](prefix string, svc Service[T]) *Handler[T] {
	return &Handler[T]{
		prefix: "/" + strings.Trim(prefix, "/"),
		svc:    svc,
		logger: log.Default(),
	}
}

func (h *Handler[T]) SetLogger(logger log.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// Prefix 以 / 开头的路由前缀
func (h *Handler[T]) Prefix() string {
	return h.prefix
}

func (h *Handler[T]) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	// PUT 覆盖整条记录，未给出的字段写入零值；PATCH 只更新给出的字段
	r.Put("/{id}", h.update)
	r.Patch("/{id}", h.patch)
	r.Delete("/{id}", h.delete)
	return r
}

// Mount 把路由挂载到 r 的 Prefix 下
func (h *Handler[T]) Mount(r chi.Router) {
	r.Mount(h.prefix, h.Routes())
}

// pathID 数字 id 转成 int64，其余保持字符串
func pathID(r *http.Request) any {
	id := chi.URLParam(r, "id")
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

func (h *Handler[T]) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	options := &service.ListOptions{OrderBy: query.Get("orderBy")}

	var err error
	if options.Page, err = intParam(query.Get("page")); err != nil {
		WriteError(w, r, h.logger, errs.Businessf(errs.CodeInvalidParam, "invalid page %q", query.Get("page")))
		return
	}
	if options.Size, err = intParam(query.Get("size")); err != nil {
		WriteError(w, r, h.logger, errs.Businessf(errs.CodeInvalidParam, "invalid size %q", query.Get("size")))
		return
	}
	for key, values := range query {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		if options.Where == nil {
			options.Where = map[string]any{}
		}
		options.Where[key] = values[0]
	}

	items, total, err := h.svc.List(r.Context(), options)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	page, size := options.Page, options.Size
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = service.DefaultPageSize
	}
	WriteData(w, http.StatusOK, &ListResult[T]{Items: items, Total: total, Page: page, Size: size})
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func (h *Handler[T]) get(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Get(r.Context(), pathID(r))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteData(w, http.StatusOK, v)
}

func (h *Handler[T]) decode(r *http.Request) (*T, error) {
	var v T
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&v); err != nil {
		return nil, errs.WrapBusiness(err, "invalid request body", errs.CodeInvalidParam)
	}
	return &v, nil
}

func (h *Handler[T]) create(w http.ResponseWriter, r *http.Request) {
	v, err := h.decode(r)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if err := h.svc.Create(r.Context(), v); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteData(w, http.StatusCreated, v)
}

func (h *Handler[T]) update(w http.ResponseWriter, r *http.Request) {
	v, err := h.decode(r)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if err := h.svc.Update(r.Context(), pathID(r), v); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteData(w, http.StatusOK, v)
}

func (h *Handler[T]) patch(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&fields); err != nil {
		WriteError(w, r, h.logger, errs.WrapBusiness(err, "invalid request body", errs.CodeInvalidParam))
		return
	}
	for key, value := range fields {
		if n, ok := value.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				fields[key] = i
			} else if f, err := n.Float64(); err == nil {
				fields[key] = f
			}
		}
	}
	v, err := h.svc.Patch(r.Context(), pathID(r), fields)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteData(w, http.StatusOK, v)
}

func (h *Handler[T]) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), pathID(r)); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, &Response{Message: "ok"})
}
