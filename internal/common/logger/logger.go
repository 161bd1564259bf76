// Package logger 基于 zap 的结构化日志，支持 lumberjack 滚动文件
package logger

import (
	"errors"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dumeirei/helpcenter-backend/internal/common/config"
)

var global *zap.Logger

// Init 按配置创建全局日志器
//
// output 取值 stdout、file、both；file 与 both 需要 file_path
func Init(cfg *config.LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	sink, err := newSink(cfg)
	if err != nil {
		return nil, err
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Caller {
		opts = append(opts, zap.AddCaller())
	}

	global = zap.New(zapcore.NewCore(newEncoder(cfg.Format), sink, level), opts...)
	return global, nil
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	if term.IsTerminal(int(os.Stdout.Fd())) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(ec)
}

func newSink(cfg *config.LoggerConfig) (zapcore.WriteSyncer, error) {
	toFile := cfg.Output == "file" || cfg.Output == "both"
	if toFile && cfg.FilePath == "" {
		return nil, errors.New("logger: file_path is required for file output")
	}

	var sinks []zapcore.WriteSyncer
	if cfg.Output != "file" {
		sinks = append(sinks, zapcore.Lock(os.Stdout))
	}
	if toFile {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}))
	}
	return zapcore.NewMultiWriteSyncer(sinks...), nil
}

// GetLogger 返回全局日志器，未初始化时返回开发模式日志器
func GetLogger() *zap.Logger {
	if global == nil {
		global, _ = zap.NewDevelopment()
	}
	return global
}

// Named 返回带名称的子日志器
func Named(name string) *zap.Logger {
	return GetLogger().Named(name)
}

// Sync 刷新缓冲
func Sync() error {
	if global == nil {
		return nil
	}
	return global.Sync()
}

// RequestID 请求 ID
func RequestID(id string) zap.Field { return zap.String("request_id", id) }

// AdminID 管理员 ID
func AdminID(id string) zap.Field { return zap.String("admin_id", id) }

// TicketNumber 工单编号，如 TKT-000042
func TicketNumber(no string) zap.Field { return zap.String("ticket_number", no) }

// TicketID 工单 ID
func TicketID(id string) zap.Field { return zap.String("ticket_id", id) }

// Recipient 邮件收件人
func Recipient(addr string) zap.Field { return zap.String("recipient", addr) }

// Module 操作日志模块
func Module(name string) zap.Field { return zap.String("module", name) }

// Action 操作日志动作
func Action(name string) zap.Field { return zap.String("action", name) }

// Elapsed 耗时
func Elapsed(d time.Duration) zap.Field { return zap.Duration("elapsed", d) }
