package transport

import (
	"testing"

	"github.com/udmlib-go/udmlib/rankconn"
)

// These tests exercise only the non-MPI (serial, mpi.IsOn()==false) code
// paths: a real MPI world requires mpirun and is out of scope for unit
// tests (§9 testing note).

func TestNewSerialCommIsSingleRank(t *testing.T) {
	c := New()
	if c.Rank() != 0 {
		t.Errorf("serial Rank() = %d, want 0", c.Rank())
	}
	if c.Size() != 1 {
		t.Errorf("serial Size() = %d, want 1", c.Size())
	}
}

func TestHandshakeSerialEchoesLocalVerdict(t *testing.T) {
	c := New()
	if c.Handshake(false) {
		t.Error("serial Handshake(false) should not report failure")
	}
	if !c.Handshake(true) {
		t.Error("serial Handshake(true) should report failure")
	}
}

func TestSendRecvWithoutMPISessionErrors(t *testing.T) {
	c := New()
	if err := c.Send([]byte{1, 2, 3}, 1); err == nil {
		t.Error("expected Send to fail without an active MPI session")
	}
	if _, err := c.Recv(1); err == nil {
		t.Error("expected Recv to fail without an active MPI session")
	}
}

func TestBytesWordsRoundtrip(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	words := bytesToWords(data)
	back := wordsToBytes(words)
	if len(back) < len(data) {
		t.Fatalf("roundtrip shrank data: got %d bytes, want >= %d", len(back), len(data))
	}
	for i, b := range data {
		if back[i] != b {
			t.Errorf("byte %d = %d, want %d", i, back[i], b)
		}
	}
}

func TestEncodeDecodePairsRoundtrip(t *testing.T) {
	pairs := []rankconn.IDPair{{MyLocal: 1, PeerLocal: 2}, {MyLocal: 3, PeerLocal: 4}}
	got := decodePairs(encodePairs(pairs))
	if len(got) != len(pairs) {
		t.Fatalf("got %d pairs, want %d", len(got), len(pairs))
	}
	for i := range pairs {
		if got[i] != pairs[i] {
			t.Errorf("pair %d = %+v, want %+v", i, got[i], pairs[i])
		}
	}
}
