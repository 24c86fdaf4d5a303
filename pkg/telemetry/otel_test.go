package telemetry

import (
	"context"
	"testing"
)

func TestSetupNoopWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "gym-test", "")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupWithEndpoint(t *testing.T) {
	// Non-routable address; nothing is exported before shutdown.
	shutdown, err := Setup(context.Background(), "gym-test", "http://192.0.2.1:4318")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
