package repositories

import (
	"chat-hub/errors"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	channelPrefix = "channel:"
	entryPrefix   = "entry:"
	messagePrefix = "msg:"

	entrySequenceKey   = "seq:entry"
	messageSequenceKey = "seq:msg"
	sequenceBandwidth  = 100

	// Upper bound of a 19 digit padded sequence, used to seek from the end of a prefix.
	lastSequence = "9999999999999999999"

	maxTxnAttempts = 5
)

func channelKey(name string) []byte {
	return []byte(channelPrefix + name)
}

// scopedPrefix returns "{prefix}{hex(name)}:".
// Names are hex encoded so that a channel called "a" never scans the keys of "a:b".
func scopedPrefix(prefix, name string) []byte {
	return []byte(prefix + hex.EncodeToString([]byte(name)) + ":")
}

// sequencedKey formats "{prefix}{hex(name)}:{seq padded to 19 digits}".
// The zero padding keeps lexicographic order equal to append order.
func sequencedKey(prefix, name string, seq uint64) []byte {
	return fmt.Appendf(scopedPrefix(prefix, name), "%019d", seq)
}

// update runs fn in a read-write transaction and retries it when Badger
// detects a conflicting concurrent commit.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnAttempts; attempt++ {
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// unixNano maps the zero time to 0 instead of an out of range value.
func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
