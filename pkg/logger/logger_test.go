package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		t.Run(env, func(t *testing.T) {
			logger, err := New(env)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			if logger == nil {
				t.Fatal("expected logger")
			}
		})
	}
}

func TestNewProductionSkipsDebug(t *testing.T) {
	logger, err := New("production")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("production logger must not emit debug")
	}
}
