package drift

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// Signature is a content fingerprint for a single tracked artifact
type Signature string

// Missing marks an artifact that does not exist on disk. The sentinel
// never collides with a real signature because content signatures are
// lowercase hex. A transition between Missing and any content signature
// counts as drift like any other change.
const Missing Signature = "MISSING"

// Snapshot maps artifact paths to their signatures at one point in time.
// Snapshots are complete: every tracked path has an entry, with absent
// files recorded as Missing. A snapshot is never modified once taken.
type Snapshot map[string]Signature

// ContentSignature hashes raw artifact content
func ContentSignature(data []byte) Signature {
	sum := sha256.Sum256(data)
	return Signature(hex.EncodeToString(sum[:]))
}

// FileSignature returns the signature for the artifact at path. A
// nonexistent file yields Missing; any other read failure is returned
// as an error.
func FileSignature(path string) (Signature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Missing, nil
		}
		return "", err
	}
	return ContentSignature(data), nil
}
