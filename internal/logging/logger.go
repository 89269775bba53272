package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/go-logr/logr"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/afero"
)

// Options 日志配置
type Options struct {
	Debug   bool   // 输出 V(1) 调试日志
	LogFile string // 不为空时同时写入 JSON 日志文件
}

// New 创建日志，返回的 closer 用于关闭日志文件
func New(fs afero.Fs, stdout io.Writer, opts Options) (logr.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(stdout, handlerOpts)
	closer := io.Closer(nopCloser{})

	if opts.LogFile != "" {
		f, err := fs.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return logr.Discard(), closer, err
		}
		handler = slogmulti.Fanout(
			slog.NewJSONHandler(f, handlerOpts),
			handler,
		)
		closer = f
	}

	return logr.FromSlogHandler(handler), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
