package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassifiers(t *testing.T) {
	wrappedMiss := fmt.Errorf("cart add: %w", fmt.Errorf("add %q: %w", "Chocolate Soufflé", ErrProductNotFound))
	joinedConflict := errors.Join(ErrIdempotencyHashMismatch, errors.New("key checkout-1"))

	tests := []struct {
		name         string
		err          error
		notFound     bool
		idemConflict bool
	}{
		{name: "catalog miss", err: ErrProductNotFound, notFound: true},
		{name: "catalog miss wrapped twice", err: wrappedMiss, notFound: true},
		{name: "key already exists", err: ErrIdempotencyKeyAlreadyExists, idemConflict: true},
		{name: "key reused for another request", err: joinedConflict, idemConflict: true},
		{name: "absent key is not a conflict", err: ErrIdempotencyKeyNotFound},
		{name: "empty cart", err: ErrCartEmpty},
		{name: "store not initialized", err: ErrStoreNotInitialized},
		{name: "nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.notFound {
				t.Fatalf("IsNotFound(%v) = %v, want %v", tt.err, got, tt.notFound)
			}
			if got := IsIdempotencyConflict(tt.err); got != tt.idemConflict {
				t.Fatalf("IsIdempotencyConflict(%v) = %v, want %v", tt.err, got, tt.idemConflict)
			}
		})
	}
}

func TestEventPublishErrorKeepsCause(t *testing.T) {
	cause := errors.New("kafka: client has run out of available brokers")
	err := fmt.Errorf("%w: %w", ErrEventPublish, cause)

	if !errors.Is(err, ErrEventPublish) || !errors.Is(err, cause) {
		t.Fatalf("expected both sentinel and cause in %v", err)
	}
}
