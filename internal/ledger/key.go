package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/pathway/internal/calendar"
)

// KeyDomain separates completion keys from any other hash in the system.
// The version suffix allows a future change of the key derivation.
const KeyDomain = "pathway/completion/v1"

// Key derives the canonical idempotency key for completing itemNumber of
// sequenceID on the user's local date completedOn.
//
// This is the only place keys are built. The key depends on nothing but these
// three values (never on an instant or random data), so every client version
// produces the same key for the same logical fact.
//
// Format: hex(SHA256(domain + 0x00 + NFC(sequenceID) + 0x00 + item + 0x00 + date))
func Key(sequenceID string, itemNumber int, completedOn calendar.Date) string {
	h := sha256.New()
	h.Write([]byte(KeyDomain))
	h.Write([]byte{0x00})
	h.Write([]byte(norm.NFC.String(sequenceID)))
	h.Write([]byte{0x00})
	h.Write([]byte(strconv.Itoa(itemNumber)))
	h.Write([]byte{0x00})
	h.Write([]byte(completedOn.String()))
	return hex.EncodeToString(h.Sum(nil))
}
