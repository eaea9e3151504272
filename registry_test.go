// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import "testing"

func TestRequestRegistry_MonotonicIDs(t *testing.T) {
	r := newRequestRegistry(nil)

	id1, _ := r.register(DirSend)
	id2, _ := r.register(DirRecv)
	id3, _ := r.register(DirSend)

	if !(id1 < id2 && id2 < id3) {
		t.Fatalf("ids not strictly increasing: %d, %d, %d", id1, id2, id3)
	}
}

func TestRequestRegistry_PollReapsOnCompletion(t *testing.T) {
	r := newRequestRegistry(nil)
	id, state := r.register(DirSend)

	done, _, _, err := r.poll(id)
	if err != nil {
		t.Fatalf("poll before completion: %v", err)
	}
	if done {
		t.Fatalf("expected not done before completeSubtask")
	}

	state.completeSubtask(42)

	done, nbytes, _, err := r.poll(id)
	if err != nil {
		t.Fatalf("poll after completion: %v", err)
	}
	if !done || nbytes != 42 {
		t.Fatalf("want done=true nbytes=42, got done=%v nbytes=%d", done, nbytes)
	}

	// Second poll of a retired id must fail, never report done again (§8 property 8).
	if _, _, _, err := r.poll(id); err != ErrNotFound {
		t.Fatalf("second poll: want ErrNotFound, got %v", err)
	}
}

func TestRequestRegistry_PollUnknownID(t *testing.T) {
	r := newRequestRegistry(nil)
	if _, _, _, err := r.poll(999); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestRequestState_FailSurfacesThroughSnapshot(t *testing.T) {
	s := newRequestState()
	s.addSubtasks(1)
	s.completeSubtask(10)

	wantErr := IOErrorf(CodeIOUnknown, nil, "boom")
	s.fail(wantErr)

	done, nbytes, err := s.snapshot()
	if done {
		t.Fatalf("want not done, got done=true")
	}
	if nbytes != 10 {
		t.Fatalf("want partial nbytes=10, got %d", nbytes)
	}
	if err != wantErr {
		t.Fatalf("want %v, got %v", wantErr, err)
	}
}

func TestRequestState_FailKeepsFirstError(t *testing.T) {
	s := newRequestState()
	first := IOErrorf(CodeIOUnknown, nil, "first")
	second := IOErrorf(CodeIOUnknown, nil, "second")

	s.fail(first)
	s.fail(second)

	_, _, err := s.snapshot()
	if err != first {
		t.Fatalf("want first error retained, got %v", err)
	}
}
