package sdgram

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()

	var got []byte
	r.Register(7, func(payload []byte) error {
		got = payload
		return nil
	})

	handled, err := r.Dispatch(7, []byte{1, 2})
	if !handled || err != nil {
		t.Fatalf("Dispatch(7) = %v, %v", handled, err)
	}
	if !reflect.DeepEqual(got, []byte{1, 2}) {
		t.Fatalf("handler got %v", got)
	}

	handled, err = r.Dispatch(8, []byte{1})
	if handled || err != nil {
		t.Fatalf("Dispatch(8) = %v, %v", handled, err)
	}
}

func TestRegistryReplace(t *testing.T) {
	r := NewRegistry()
	first, second := 0, 0
	r.Register(1, func([]byte) error { first++; return nil })
	r.Register(1, func([]byte) error { second++; return nil })

	if _, err := r.Dispatch(1, nil); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if first != 0 || second != 1 {
		t.Fatalf("first=%d second=%d", first, second)
	}
}

func TestRegistryHandlerError(t *testing.T) {
	r := NewRegistry()
	errFail := errors.New("fail")
	r.Register(0, func([]byte) error { return errFail })

	handled, err := r.Dispatch(0, nil)
	if !handled || !errors.Is(err, errFail) {
		t.Fatalf("Dispatch = %v, %v", handled, err)
	}
}

func TestRegistryPorts(t *testing.T) {
	r := NewRegistry()
	if len(r.Ports()) != 0 {
		t.Fatalf("empty registry reports ports %v", r.Ports())
	}

	nop := func([]byte) error { return nil }
	for _, p := range []uint8{200, 3, 255, 0, 3} {
		r.Register(p, nop)
	}
	if got, want := r.Ports(), []uint8{0, 3, 200, 255}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Ports() = %v, want %v", got, want)
	}
}

func TestRegistryNilHandler(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for nil handler")
		}
	}()
	NewRegistry().Register(1, nil)
}
