// Package web 提供内置的前端演示页面
package web

import "embed"

// Files 内置的演示静态文件
//
//go:embed *.html
var Files embed.FS
