package util

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	if RequestID(ctx) != "" {
		t.Fatal("expected empty id on bare context")
	}
	if WithRequestID(ctx, "") != ctx {
		t.Fatal("empty id should return the same context")
	}
	ctx = WithRequestID(ctx, "req-1")
	if got := RequestID(ctx); got != "req-1" {
		t.Fatalf("RequestID = %q", got)
	}
}

func TestNewRequestID_IsUUID(t *testing.T) {
	id := NewRequestID()
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("NewRequestID() = %q is not a uuid: %v", id, err)
	}
	if id == NewRequestID() {
		t.Fatal("ids should be unique")
	}
}
