package refreshtoken

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Lifetime controls how the refresh cookie is materialized. A
// session-scoped cookie carries no Expires attribute, so the invalid
// combination of a browser-session cookie with an explicit expiry cannot
// be constructed.
type Lifetime struct {
	persistent bool
}

func SessionScoped() Lifetime {
	return Lifetime{persistent: false}
}

func Persistent() Lifetime {
	return Lifetime{persistent: true}
}

func (l Lifetime) IsPersistent() bool {
	return l.persistent
}

// Token is the refresh credential for one link of a rotation chain. All
// tokens produced by successive renewals share the same Family; at any
// moment exactly one of them is the head of that family in the
// revocation store. ID is unique per issuance, so two links of the same
// chain never fingerprint identically even when minted within the same
// second (JWT timestamps truncate to whole seconds on the wire).
type Token struct {
	ID        uuid.UUID
	UserID    int
	ExpiresAt time.Time
	Lifetime  Lifetime
	Family    uuid.UUID
}

func (t Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// TTL is the remaining validity window, used as the head record's
// time-to-live in the revocation store.
func (t Token) TTL(now time.Time) time.Duration {
	return t.ExpiresAt.Sub(now)
}

// Fingerprint returns a deterministic digest over the full token payload.
// Two structurally identical tokens fingerprint identically, so a head
// comparison in the revocation store means "this is exactly the token
// last issued for this family". The canonical encoding is stable across
// processes, unlike a language-native hasher.
func Fingerprint(t Token) string {
	canonical := fmt.Sprintf("%s|%d|%d|%t|%s", t.ID, t.UserID, t.ExpiresAt.Unix(), t.Lifetime.IsPersistent(), t.Family)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
