// Package resp 提供统一的HTTP响应封装。
// 所有接口返回 {code, message, data, request_id} 结构，code 为业务码，0 表示成功。
package resp

import (
	"encoding/json"
	"net/http"
)

// Code 业务响应码
type Code int

// 业务码集合
// 1xxx 为通用错误，2xxx 为店铺业务错误。
const (
	CodeOK            Code = 0
	CodeInvalidParam  Code = 1001
	CodeUnauthorized  Code = 1002
	CodeForbidden     Code = 1003
	CodeNotFound      Code = 1004
	CodeRateLimited   Code = 1005
	CodeTimeout       Code = 1006
	CodeInternalError Code = 1500

	CodeInsufficientStock Code = 2001
	CodeInvalidState      Code = 2002
	CodeInvalidCode       Code = 2003
)

// Response 统一响应体
type Response struct {
	Code      Code        `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// HTTPStatusFromCode 将业务码映射为HTTP状态码
func HTTPStatusFromCode(code Code) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidParam, CodeInvalidCode:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInsufficientStock, CodeInvalidState:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON 写出JSON响应
func WriteJSON(w http.ResponseWriter, status int, body *Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// OK 写出成功响应
func OK(w http.ResponseWriter, data interface{}, requestID, message string) {
	if message == "" {
		message = "ok"
	}
	WriteJSON(w, http.StatusOK, &Response{
		Code:      CodeOK,
		Message:   message,
		Data:      data,
		RequestID: requestID,
	})
}

// Error 写出错误响应
// detail 为可选的补充信息，拼接在 message 之后返回给调用方。
func Error(w http.ResponseWriter, status int, code Code, message, requestID, detail string) {
	if detail != "" {
		message = message + ": " + detail
	}
	WriteJSON(w, status, &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
	})
}
