package protocol

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{Serialization(cause), KindSerialization},
		{Framing(cause), KindFraming},
		{Network(cause), KindNetwork},
		{Closed(), KindClosed},
		{cause, KindUnknown},
		{nil, KindUnknown},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.want {
			t.Fatalf("KindOf(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Network(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable via errors.Is")
	}
	// wrapping again keeps the tag reachable
	wrapped := fmt.Errorf("send: %w", err)
	if KindOf(wrapped) != KindNetwork {
		t.Fatalf("expected network kind through wrapping, got %v", KindOf(wrapped))
	}
}

func TestClosedIsCanonical(t *testing.T) {
	if !errors.Is(Closed(), ErrClosed) {
		t.Fatalf("Closed() should match ErrClosed")
	}
	if Closed().Error() != "closed: transport is closed" {
		t.Fatalf("unexpected message: %q", Closed().Error())
	}
}
