package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cloud-platform/demo-server/shared/logger"
)

// RequestIDHeader 请求ID头
const RequestIDHeader = "X-Request-ID"

// CORSConfig 每个响应都要附加的固定头
type CORSConfig struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
	CacheControl string
	// PreflightStatus OPTIONS请求直接返回的状态码
	PreflightStatus int
}

// DefaultCORSConfig 本地演示用的宽松配置
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigin:     "*",
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "Authorization"},
		CacheControl:    "no-cache, no-store, must-revalidate",
		PreflightStatus: http.StatusOK,
	}
}

// Headers 返回要注入的响应头
func (c CORSConfig) Headers() http.Header {
	h := make(http.Header, 4)
	h.Set("Access-Control-Allow-Origin", c.AllowOrigin)
	h.Set("Access-Control-Allow-Methods", strings.Join(c.AllowMethods, ", "))
	h.Set("Access-Control-Allow-Headers", strings.Join(c.AllowHeaders, ", "))
	h.Set("Cache-Control", c.CacheControl)
	return h
}

// headerWriter 在响应头发出之前写入固定头
//
// http.FileServer 的错误路径会删除 Cache-Control，所以不能在处理前设置一次了事。
type headerWriter struct {
	gin.ResponseWriter
	headers http.Header
}

func (w *headerWriter) apply() {
	if w.ResponseWriter.Written() {
		return
	}
	dst := w.ResponseWriter.Header()
	for k, v := range w.headers {
		dst[k] = append([]string(nil), v...)
	}
}

func (w *headerWriter) WriteHeader(code int) {
	w.apply()
	w.ResponseWriter.WriteHeader(code)
}

func (w *headerWriter) WriteHeaderNow() {
	w.apply()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *headerWriter) Write(b []byte) (int, error) {
	w.apply()
	return w.ResponseWriter.Write(b)
}

func (w *headerWriter) WriteString(s string) (int, error) {
	w.apply()
	return w.ResponseWriter.WriteString(s)
}

func (w *headerWriter) Flush() {
	w.apply()
	w.ResponseWriter.Flush()
}

// CORS 跨域中间件，所有响应都带上固定头，OPTIONS直接返回
func CORS(config CORSConfig) gin.HandlerFunc {
	headers := config.Headers()

	return func(c *gin.Context) {
		w := &headerWriter{ResponseWriter: c.Writer, headers: headers}
		c.Writer = w

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(config.PreflightStatus)
			return
		}

		c.Next()

		// 处理函数没有写任何内容时，gin 会在之后补发响应头
		w.apply()
	}
}

// RequestID 请求ID中间件
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// AccessLog 访问日志中间件，格式为 "<客户端地址> - <请求行> <状态码> <大小>"
func AccessLog(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		size := "-"
		if n := c.Writer.Size(); n > 0 {
			size = fmt.Sprint(n)
		}

		fields := map[string]interface{}{
			"status_code": status,
			"latency":     time.Since(start).String(),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
		}
		if requestID := c.GetString("request_id"); requestID != "" {
			fields["request_id"] = requestID
		}

		entry := log.WithFields(fields)
		msg := fmt.Sprintf("%s - \"%s %s %s\" %d %s",
			c.ClientIP(), c.Request.Method, c.Request.URL.RequestURI(), c.Request.Proto, status, size)

		// 根据状态码选择日志级别
		switch {
		case status >= 500:
			entry.Error(msg)
		case status >= 400:
			entry.Warn(msg)
		default:
			entry.Info(msg)
		}
	}
}

// Recovery 恢复中间件
func Recovery(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.WithFields(map[string]interface{}{
			"request_id": c.GetString("request_id"),
			"panic":      recovered,
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
		}).Error("服务器内部错误")

		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		c.Abort()
	})
}
