package util

import (
	"math/big"

	"github.com/google/uuid"
)

// uidNamespace scopes the name-based UUIDs generated for synthetic cases.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("rtfusion"))

// GenerateDeterministicUID derives a DICOM UID from seed. The same seed
// always yields the same UID. The value uses the "2.25." root reserved for
// UUID-derived UIDs, so it stays within the 64 character limit.
func GenerateDeterministicUID(seed string) string {
	id := uuid.NewSHA1(uidNamespace, []byte(seed))
	n := new(big.Int).SetBytes(id[:])
	return "2.25." + n.String()
}

// NewUID returns a random UUID-derived DICOM UID.
func NewUID() string {
	id := uuid.New()
	n := new(big.Int).SetBytes(id[:])
	return "2.25." + n.String()
}
