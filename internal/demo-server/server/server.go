package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cloud-platform/demo-server/shared/config"
	"github.com/cloud-platform/demo-server/shared/logger"
	"github.com/cloud-platform/demo-server/shared/middleware"
)

// DemoServer 带CORS头的静态文件服务器
type DemoServer struct {
	config     config.ServerConfig
	assets     Assets
	log        logger.Logger
	out        io.Writer
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
}

// New 创建DemoServer，assets 见 ResolveAssets
func New(cfg config.ServerConfig, assets Assets, log logger.Logger, out io.Writer) *DemoServer {
	s := &DemoServer{
		config: cfg,
		assets: assets,
		log:    log,
		out:    out,
	}
	s.engine = s.setupRouter()
	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	return s
}

func (s *DemoServer) setupRouter() *gin.Engine {
	r := gin.New()
	// 只信任直连地址，日志里记录真实的客户端
	_ = r.SetTrustedProxies(nil)

	r.Use(
		middleware.RequestID(),
		middleware.AccessLog(s.log),
		middleware.Recovery(s.log),
		middleware.CORS(middleware.DefaultCORSConfig()),
	)

	files := newAssetHandler(s.assets.FS)
	r.Any("/*filepath", files.serve)
	r.NoRoute(unsupportedMethod)

	return r
}

// Handler 返回HTTP处理器
func (s *DemoServer) Handler() http.Handler {
	return s.engine
}

// Source 返回静态文件来源
func (s *DemoServer) Source() string {
	return s.assets.Source
}

// Listen 绑定监听端口，端口被占用或无权限时返回错误
func (s *DemoServer) Listen() error {
	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", s.config.Address(), err)
	}
	s.listener = ln
	return nil
}

// Addr 返回实际监听地址，未监听时返回nil
func (s *DemoServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// URL 返回浏览器访问地址
func (s *DemoServer) URL() string {
	port := s.config.Port
	if tcp, ok := s.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

// Run 启动服务器并阻塞，直到ctx被取消
func (s *DemoServer) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	printBanner(s.out, s.URL(), s.assets.Source)
	s.log.WithFields(map[string]interface{}{
		"addr": s.Addr().String(),
		"root": s.assets.Source,
	}).Info("演示服务器已启动")

	serveCh := make(chan error, 1)
	go func() {
		serveCh <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("服务器运行失败: %w", err)
	}

	printStopped(s.out)
	return s.Shutdown()
}

// Shutdown 停止接受新连接并释放端口
func (s *DemoServer) Shutdown() error {
	if s.config.ShutdownTimeout <= 0 {
		if err := s.httpServer.Close(); err != nil {
			return fmt.Errorf("关闭服务器失败: %w", err)
		}
		s.log.Info("演示服务器已停止")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Warnf("等待请求结束超时，强制关闭: %v", err)
		if cerr := s.httpServer.Close(); cerr != nil {
			return fmt.Errorf("关闭服务器失败: %w", cerr)
		}
	}

	s.log.Info("演示服务器已停止")
	return nil
}
