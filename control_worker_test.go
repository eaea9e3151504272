// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import "testing"

func TestSplitBuckets_BelowThreshold(t *testing.T) {
	// S1: payload just under the 1MiB threshold stays a single bucket.
	sizes := splitBuckets(1_048_575, 2, 1<<20)
	if len(sizes) != 1 || sizes[0] != 1_048_575 {
		t.Fatalf("want [1048575], got %v", sizes)
	}
}

func TestSplitBuckets_EvenSplit(t *testing.T) {
	// S2: exactly divisible payload at threshold splits evenly across N.
	sizes := splitBuckets(2_097_152, 2, 1<<20)
	want := []int64{1_048_576, 1_048_576}
	if len(sizes) != len(want) {
		t.Fatalf("want %v, got %v", want, sizes)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("want %v, got %v", want, sizes)
		}
	}
}

func TestSplitBuckets_FourStreamsEvenSplit(t *testing.T) {
	// S3: 5,000,000 bytes over N=4 streams, ceil(5000000/4) = 1250000 exactly.
	sizes := splitBuckets(5_000_000, 4, 1<<20)
	want := []int64{1_250_000, 1_250_000, 1_250_000, 1_250_000}
	if len(sizes) != len(want) {
		t.Fatalf("want %v, got %v", want, sizes)
	}
	var total int64
	for i, sz := range sizes {
		total += sz
		if sz != want[i] {
			t.Fatalf("bucket %d: want %d, got %d", i, want[i], sz)
		}
	}
	if total != 5_000_000 {
		t.Fatalf("total want 5000000, got %d", total)
	}
}

func TestSplitBuckets_SingleStreamNeverSplits(t *testing.T) {
	// S4: N=1 always produces exactly one bucket regardless of threshold.
	sizes := splitBuckets(67_108_864, 1, 1<<20)
	if len(sizes) != 1 || sizes[0] != 67_108_864 {
		t.Fatalf("want [67108864], got %v", sizes)
	}
}

func TestSplitBuckets_ZeroLength(t *testing.T) {
	if sizes := splitBuckets(0, 4, 1<<20); sizes != nil {
		t.Fatalf("want nil, got %v", sizes)
	}
}

func TestSplitBuckets_NeverExceedsN(t *testing.T) {
	for _, length := range []int64{1, 1024, 1 << 20, (1 << 20) + 1, 16_777_216, 67_108_864} {
		for _, n := range []int{1, 2, 4, 8} {
			sizes := splitBuckets(length, n, 1<<20)
			if len(sizes) > n {
				t.Fatalf("length=%d n=%d: got %d buckets, want <= %d", length, n, len(sizes), n)
			}
			var total int64
			for _, sz := range sizes {
				total += sz
			}
			if total != length {
				t.Fatalf("length=%d n=%d: buckets sum to %d, want %d", length, n, total, length)
			}
		}
	}
}

func TestControlWorker_ZeroLengthMessageCompletesWithoutDispatch(t *testing.T) {
	epSend, epRecv := newEndpointPair(t)
	defer epSend.close()
	defer epRecv.close()

	streams := []*streamWorker{}
	sendW := newControlWorker(epSend, DirSend, streams, 1<<20, 1, nopLogger{}, nil)
	recvW := newControlWorker(epRecv, DirRecv, streams, 1<<20, 1, nopLogger{}, nil)
	defer sendW.close()
	defer recvW.close()

	sendState := newRequestState()
	recvState := newRequestState()

	sendW.enqueue(controlJob{buf: nil, state: sendState})
	recvW.enqueue(controlJob{buf: make([]byte, 0), state: recvState})

	waitDone(t, sendState)
	waitDone(t, recvState)

	if done, nbytes, err := recvState.snapshot(); !done || nbytes != 0 || err != nil {
		t.Fatalf("recv snapshot: done=%v nbytes=%d err=%v", done, nbytes, err)
	}
}
