package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/louisbranch/nocturne/internal/engine/event"
)

// ContentHash fingerprints an event's intent: everything except the
// store-assigned sequence and timestamp. Stores use it to recognize a
// retried append of the same event.
func ContentHash(evt event.Event) string {
	h := sha256.New()
	for _, part := range []string{
		evt.GameID,
		string(evt.Type),
		string(evt.Visibility),
		evt.ActorID,
		evt.FactionID,
		strconv.Itoa(evt.Round),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(evt.PayloadJSON)
	return hex.EncodeToString(h.Sum(nil))
}
