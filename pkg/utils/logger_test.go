package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

// ============================================================
// Разбор уровня
// ============================================================

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"Error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"garbage", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================
// Инициализация
// ============================================================

func TestInitLoggerNeverNil(t *testing.T) {
	tests := []struct {
		name   string
		config LogConfig
	}{
		{"empty config", LogConfig{}},
		{"json format", LogConfig{Level: "debug", Format: "json"}},
		{"text format", LogConfig{Level: "warn", Format: "text"}},
		{"development mode", LogConfig{Level: "info", Development: true}},
		{"unknown level", LogConfig{Level: "nonsense"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := InitLogger(tt.config)
			if logger == nil {
				t.Fatal("InitLogger returned nil")
			}
			logger.Info("smoke")
		})
	}
}

func TestInitLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")

	logger := InitLogger(LogConfig{Level: "info", Format: "json", Output: path})
	logger.Info("pair order finished",
		PairID("3f1c2a9e-0000-0000-0000-000000000001"),
		Symbol("SR601"),
		Price(101.35))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	var entry map[string]interface{}
	line := strings.TrimSpace(string(data))
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not valid JSON: %v\nline: %s", err, line)
	}

	if entry["message"] != "pair order finished" {
		t.Errorf("message = %v, want %q", entry["message"], "pair order finished")
	}
	if entry["pair_id"] != "3f1c2a9e-0000-0000-0000-000000000001" {
		t.Errorf("pair_id = %v", entry["pair_id"])
	}
	if entry["symbol"] != "SR601" {
		t.Errorf("symbol = %v, want SR601", entry["symbol"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
}

func TestInitLoggerRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")

	logger := InitLogger(LogConfig{Level: "error", Format: "json", Output: path})
	logger.Info("should be dropped")
	logger.Error("should be written")
	_ = logger.Sync()

	data, _ := os.ReadFile(path)
	out := string(data)
	if strings.Contains(out, "should be dropped") {
		t.Error("info entry written despite error level")
	}
	if !strings.Contains(out, "should be written") {
		t.Error("error entry missing")
	}
}

func TestInitLoggerBadFileFallsBack(t *testing.T) {
	// Недоступный путь не должен ронять инициализацию
	logger := InitLogger(LogConfig{Output: "/nonexistent-dir/sub/engine.log"})
	if logger == nil {
		t.Fatal("InitLogger returned nil for unwritable output path")
	}
	logger.Info("falls back to stderr")
}

// ============================================================
// Глобальный логгер
// ============================================================

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	logger := InitLogger(LogConfig{Level: "debug"})
	SetGlobalLogger(logger)

	if GetGlobalLogger() != logger {
		t.Error("GetGlobalLogger did not return the logger just set")
	}
	if L() != logger {
		t.Error("L() did not return the global logger")
	}
}

func TestGetGlobalLoggerLazyInit(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	SetGlobalLogger(nil)
	if GetGlobalLogger() == nil {
		t.Fatal("GetGlobalLogger returned nil after reset")
	}
}

// ============================================================
// Производные логгеры
// ============================================================

func TestWithComponent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")

	logger := InitLogger(LogConfig{Level: "info", Format: "json", Output: path})
	clog := logger.WithComponent("coordinator")
	if clog == nil {
		t.Fatal("WithComponent returned nil")
	}

	clog.Info("sweep done")
	_ = clog.Sync()

	data, _ := os.ReadFile(path)
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}
	if entry["component"] != "coordinator" {
		t.Errorf("component = %v, want coordinator", entry["component"])
	}
}

func TestWithFields(t *testing.T) {
	logger := InitLogger(LogConfig{Level: "info"})
	derived := logger.With(Side("buy"), State("running"))
	if derived == nil {
		t.Fatal("With returned nil")
	}
	derived.Info("derived logger works")
}

// ============================================================
// Доменные конструкторы полей
// ============================================================

func TestDomainFieldKeys(t *testing.T) {
	tests := []struct {
		name   string
		gotKey string
		want   string
	}{
		{"Symbol", Symbol("SR601").Key, "symbol"},
		{"PairID", PairID("uuid").Key, "pair_id"},
		{"OrderID", OrderID("ord-1").Key, "order_id"},
		{"Price", Price(101.35).Key, "price"},
		{"Volume", Volume(3).Key, "volume"},
		{"Spread", Spread(-0.4).Key, "spread"},
		{"PNL", PNL(12.5).Key, "pnl"},
		{"Side", Side("sell").Key, "side"},
		{"State", State("finished").Key, "state"},
		{"Latency", Latency(3.2).Key, "latency_ms"},
		{"Component", Component("recovery").Key, "component"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.gotKey != tt.want {
				t.Errorf("%s field key = %q, want %q", tt.name, tt.gotKey, tt.want)
			}
		})
	}
}
