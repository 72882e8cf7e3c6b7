package ledger

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/coordframe/delegation/kernelerrors"
	"github.com/coordframe/delegation/types"
)

// hashEntry computes H(seq || prev_hash || payload) using BLAKE2b-256.
// Payload keys are sorted before hashing so the result is independent of
// Go's randomized map iteration order.
func hashEntry(seq uint64, prevHash []byte, payload map[string]interface{}) []byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err) // only fails for an invalid key length, and we pass nil
	}

	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], seq)
	h.Write(seqBuf[:])
	h.Write(prevHash)

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		fmt.Fprintf(h, "=%v;", payload[k])
	}

	return h.Sum(nil)
}

// verifyChain recomputes every hash_i and compares it against the stored
// value, also checking that sequence numbers are gap-free and that each
// entry's PrevHash matches its predecessor's Hash.
func verifyChain(entries []types.LedgerEntry, merkle bool) error {
	if !merkle {
		return nil
	}
	var prevHash []byte
	for i, e := range entries {
		wantSeq := uint64(i) + 1
		if e.Seq != wantSeq {
			return fmt.Errorf("%w: entry at index %d has seq %d, want %d",
				kernelerrors.ErrLedgerIntegrity, i, e.Seq, wantSeq)
		}
		if !bytes.Equal(e.PrevHash, prevHash) {
			return fmt.Errorf("%w: entry seq %d prev_hash mismatch", kernelerrors.ErrLedgerIntegrity, e.Seq)
		}
		want := hashEntry(e.Seq, prevHash, e.Payload)
		if !bytes.Equal(want, e.Hash) {
			return fmt.Errorf("%w: entry seq %d hash mismatch", kernelerrors.ErrLedgerIntegrity, e.Seq)
		}
		prevHash = e.Hash
	}
	return nil
}
