package oneshot

import (
	"bytes"
	"io"
	"os"
	"testing"
)

type testMsg struct {
	Tag     string
	Payload []byte
}

func newTestPair(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	host, peerFile, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	peer := Open(peerFile.Fd())
	// the cleanup holds peerFile so its finalizer cannot close the fd
	// out from under peer mid-test
	t.Cleanup(func() {
		host.Close()
		peer.Close()
		peerFile.Close()
	})
	return host, peer
}

func TestSendRecv(t *testing.T) {
	host, peer := newTestPair(t)

	want := testMsg{Tag: "success", Payload: []byte("hello")}
	errCh := make(chan error, 1)
	go func() {
		errCh <- peer.Send(want)
	}()

	var got testMsg
	if err := host.Recv(&got); err != nil {
		t.Fatalf("Recv: %v (bytesRead=%d)", err, host.BytesRead())
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.Tag != want.Tag || !bytes.Equal(got.Payload, want.Payload) {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if host.BytesRead() == 0 {
		t.Error("BytesRead reported zero after a message")
	}
}

func TestRecvEOFOnSilentClose(t *testing.T) {
	host, peer := newTestPair(t)

	// peer dies without writing
	peer.Close()

	var got testMsg
	if err := host.Recv(&got); err != io.EOF {
		t.Fatalf("Recv: expected io.EOF, got %v", err)
	}
}

func TestSendAtMostOnce(t *testing.T) {
	host, peer := newTestPair(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		var got testMsg
		host.Recv(&got)
	}()
	if err := peer.Send(testMsg{Tag: "first"}); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	<-done
	if err := peer.Send(testMsg{Tag: "second"}); err == nil {
		t.Error("second Send succeeded, want error")
	}
}

func TestRecvAtMostOnce(t *testing.T) {
	host, peer := newTestPair(t)

	go peer.Send(testMsg{Tag: "only"})
	var got testMsg
	if err := host.Recv(&got); err != nil {
		t.Fatalf("Recv: %v (bytesRead=%d)", err, host.BytesRead())
	}
	if err := host.Recv(&got); err == nil {
		t.Error("second Recv succeeded, want error")
	}
}

func TestLargePayload(t *testing.T) {
	host, peer := newTestPair(t)

	big := make([]byte, 4<<20)
	for i := range big {
		big[i] = byte(i)
	}
	go peer.Send(testMsg{Tag: "big", Payload: big})

	var got testMsg
	if err := host.Recv(&got); err != nil {
		ents, _ := os.ReadDir("/proc/self/fd")
		var names []string
		for _, e := range ents {
			tgt, _ := os.Readlink("/proc/self/fd/" + e.Name())
			names = append(names, e.Name()+"->"+tgt)
		}
		t.Fatalf("Recv: %v (bytesRead=%d) hostfd=%d peerfd=%d openfds=%v", err, host.BytesRead(), host.f.Fd(), peer.f.Fd(), names)
	}
	if !bytes.Equal(got.Payload, big) {
		t.Error("large payload corrupted in transit")
	}
	if host.BytesRead() < WarnSize {
		t.Errorf("BytesRead %d below WarnSize for a 4 MiB payload", host.BytesRead())
	}
}
