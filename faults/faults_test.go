package faults_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fabfab/shop-agent/faults"
)

func TestServiceNilError(t *testing.T) {
	if err := faults.Service("embedding", "embed", nil); err != nil {
		t.Fatalf("expected nil for nil cause, got %v", err)
	}
}

func TestServiceWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := faults.Service("embedding", "embed", cause)

	if !faults.IsService(err) {
		t.Fatal("expected a service error")
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause must survive errors.Is")
	}
	if faults.IsTimeout(err) {
		t.Fatal("plain failure must not be tagged as timeout")
	}
	if !strings.Contains(err.Error(), "embedding service error") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestServiceDetectsDeadline(t *testing.T) {
	err := faults.Service("generation", "chat", context.DeadlineExceeded)

	if !faults.IsTimeout(err) {
		t.Fatal("deadline exceeded must be tagged as timeout")
	}
	if !strings.Contains(err.Error(), "generation service timeout") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestServiceDetectsWrappedDeadline(t *testing.T) {
	cause := errors.Join(errors.New("request failed"), context.DeadlineExceeded)
	if !faults.IsTimeout(faults.Service("generation", "chat", cause)) {
		t.Fatal("timeout detection must walk the error chain")
	}
}

func TestIsServiceOnForeignError(t *testing.T) {
	if faults.IsService(errors.New("something else")) {
		t.Fatal("unrelated error must not report as service error")
	}
	if faults.IsTimeout(errors.New("something else")) {
		t.Fatal("unrelated error must not report as timeout")
	}
}
