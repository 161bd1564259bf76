// Package logger 日志模块单元测试
package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/helpcenter-backend/internal/common/config"
)

// ==================== Init 函数测试 ====================

func TestInit_ConsoleFormat(t *testing.T) {
	l, err := Init(&config.LoggerConfig{Level: "debug", Format: "console", Output: "stdout", Caller: true})
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.Same(t, l, GetLogger())
}

func TestInit_UnknownLevelFallsBackToInfo(t *testing.T) {
	l, err := Init(&config.LoggerConfig{Level: "verbose", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1)) // debug
	assert.True(t, l.Core().Enabled(0))   // info
}

func TestInit_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "helpcenter.log")

	l, err := Init(&config.LoggerConfig{
		Level:      "info",
		Format:     "json",
		Output:     "file",
		FilePath:   logFile,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	})
	require.NoError(t, err)

	l.Info("ticket created", TicketNumber("TKT-000042"), Module("ticket"))
	require.NoError(t, Sync())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "ticket created", entry["msg"])
	assert.Equal(t, "TKT-000042", entry["ticket_number"])
	assert.Equal(t, "ticket", entry["module"])
}

// ==================== 字段构造测试 ====================

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, "request_id", RequestID("r").Key)
	assert.Equal(t, "admin_id", AdminID("a").Key)
	assert.Equal(t, "ticket_id", TicketID("t").Key)
	assert.Equal(t, "recipient", Recipient("x@y.z").String)
	assert.Equal(t, "action", Action("reply").Key)
	assert.Equal(t, "elapsed", Elapsed(time.Second).Key)
}

func TestInit_FileOutputRequiresPath(t *testing.T) {
	_, err := Init(&config.LoggerConfig{Level: "info", Output: "both"})
	assert.Error(t, err)
}

func TestNamed(t *testing.T) {
	assert.NotNil(t, Named("notification"))
}
