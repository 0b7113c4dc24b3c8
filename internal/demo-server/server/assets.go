package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/cloud-platform/demo-server/web"
)

// EmbeddedSource 使用内置页面时横幅中显示的来源
const EmbeddedSource = "embedded demo pages"

// Assets 静态文件来源
type Assets struct {
	FS http.FileSystem
	// Source 用于横幅和日志
	Source string
}

// EmbeddedAssets 返回编译进二进制的演示页面，与可执行文件位置无关
func EmbeddedAssets() Assets {
	return Assets{FS: http.FS(web.Files), Source: EmbeddedSource}
}

// DirAssets 以目录为根提供文件
func DirAssets(root string) (Assets, error) {
	abs, err := ResolveRoot(root)
	if err != nil {
		return Assets{}, err
	}
	return Assets{FS: http.Dir(abs), Source: abs}, nil
}

// ResolveAssets root 为空时使用内置页面，否则使用该目录
func ResolveAssets(root string) (Assets, error) {
	if root == "" {
		return EmbeddedAssets(), nil
	}
	return DirAssets(root)
}

// ResolveRoot 解析静态文件根目录并返回绝对路径
func ResolveRoot(root string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("根目录不能为空")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("解析根目录失败: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("根目录不可用: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("根目录不是目录: %s", abs)
	}

	return abs, nil
}

// assetHandler 以标准静态文件语义提供文件
type assetHandler struct {
	files http.Handler
}

func newAssetHandler(fsys http.FileSystem) *assetHandler {
	return &assetHandler{files: http.FileServer(fsys)}
}

// serve 只处理GET和HEAD，其余方法返回501
func (h *assetHandler) serve(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet, http.MethodHead:
		h.files.ServeHTTP(c.Writer, c.Request)
	default:
		unsupportedMethod(c)
	}
}

func unsupportedMethod(c *gin.Context) {
	c.String(http.StatusNotImplemented, "Unsupported method ('%s')", c.Request.Method)
}
