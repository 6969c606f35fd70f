package perr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	err := E(KindPlatformAPI, "platform.mentions", base)

	if got := KindOf(err); got != KindPlatformAPI {
		t.Errorf("KindOf: got %v, want %v", got, KindPlatformAPI)
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error lost the cause")
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("iteration: %w", E(KindStore, "store.set_cursor", errors.New("disk full")))
	if got := KindOf(err); got != KindStore {
		t.Errorf("KindOf through fmt.Errorf: got %v, want %v", got, KindStore)
	}
}

func TestKindOfPlain(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf plain error: got %v, want KindUnknown", got)
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(E(KindInitialization, "platform.new", errors.New("empty consumer key"))) {
		t.Error("initialization errors must be fatal")
	}
	for _, k := range []Kind{KindPlatformAPI, KindCompletionAPI, KindStore, KindInvalidCallback, KindTokenExchange} {
		if IsFatal(E(k, "op", errors.New("x"))) {
			t.Errorf("kind %v must not be fatal", k)
		}
	}
}

func TestErrorString(t *testing.T) {
	err := E(KindCompletionAPI, "reply.compose", errors.New("timeout"))
	want := "reply.compose: timeout"
	if err.Error() != want {
		t.Errorf("Error(): got %q, want %q", err.Error(), want)
	}
}
