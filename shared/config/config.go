package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/cloud-platform/demo-server/shared/logger"
)

const (
	// DefaultPort 未指定端口时监听的端口
	DefaultPort = 8080

	envPrefix         = "DEMO"
	defaultConfigFile = "demo-server.yaml"
)

// Config 演示服务器配置
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	// Root 静态文件根目录，为空时使用内置的演示页面
	Root              string        `mapstructure:"root"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" validate:"gte=0"`
	// ShutdownTimeout 为0时直接关闭连接，不等待进行中的请求
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// Address 返回服务器监听地址
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn warning error fatal"`
	Format   string `mapstructure:"format" validate:"oneof=console json"`
	Output   string `mapstructure:"output" validate:"oneof=stdout stderr file"`
	FilePath string `mapstructure:"file_path" validate:"required_if=Output file"`
}

// ToLoggerConfig 转换为logger.Config
func (l *LogConfig) ToLoggerConfig() logger.Config {
	return logger.Config{
		Level:    l.Level,
		Format:   l.Format,
		Output:   l.Output,
		FilePath: l.FilePath,
	}
}

// LoadOptions 加载选项
type LoadOptions struct {
	// ConfigFile 显式指定的配置文件，为空时尝试读取当前目录下的demo-server.yaml
	ConfigFile string

	// 命令行覆盖项，优先级最高，在验证之前生效
	Port *int
	Root string
}

var validate = validator.New()

// Load 加载配置：默认值 < 配置文件 < 环境变量 < 命令行
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	configFile := opts.ConfigFile
	if configFile == "" {
		// 只认带扩展名的文件，同名的可执行文件不能被当成配置读取
		if info, err := os.Stat(defaultConfigFile); err == nil && !info.IsDir() {
			configFile = defaultConfigFile
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if opts.Port != nil {
		cfg.Server.Port = *opts.Port
	}
	if opts.Root != "" {
		cfg.Server.Root = opts.Root
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// 服务器默认值
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.root", "")
	v.SetDefault("server.read_header_timeout", "0s")
	v.SetDefault("server.shutdown_timeout", "0s")

	// 日志默认值
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file_path", "")
}

// Validate 验证配置
func (c *Config) Validate() error {
	return validate.Struct(c)
}
