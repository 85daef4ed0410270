// Package expose 是生成的 expose 代码依赖的 HTTP 层，基于 chi 路由
package expose

import (
	"encoding/json"
	"net/http"

	"github.com/terminatorcore/terminator/errs"
	"github.com/terminatorcore/terminator/log"
)

// Response 所有接口统一的返回结构，Code 为 0 表示成功
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ListResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

func WriteJSON(w http.ResponseWriter, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, &Response{Message: "ok", Data: data})
}

// StatusOf 错误对应的 HTTP 状态码
// 业务异常 400（记录不存在 404），日志级别异常 200，其余 500
func StatusOf(err error) int {
	switch errs.KindOf(err) {
	case errs.KindBusiness:
		if errs.CodeOf(err) == errs.CodeNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadRequest
	case errs.KindInfo:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// WriteError 记录日志并按错误分类返回，服务异常不向调用方暴露内部原因
func WriteError(w http.ResponseWriter, r *http.Request, logger log.Logger, err error) {
	errs.LogContext(r.Context(), logger, err, "method", r.Method, "path", r.URL.Path)

	status := StatusOf(err)
	code := errs.CodeOf(err)
	message := errs.MessageOf(err)
	switch {
	case status == http.StatusInternalServerError:
		if code == 0 {
			code = errs.CodeInternal
		}
		message = "internal error"
	case code == 0 && status >= http.StatusBadRequest:
		// 0 是成功响应的 code
		code = errs.CodeInvalidParam
	}
	WriteJSON(w, status, &Response{Code: code, Message: message})
}
