package hasher

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// ChainHash hashes prevHash followed by each line, length-prefixed so
// that ["ab","c"] and ["a","bc"] differ. An empty prevHash starts a chain.
func ChainHash(prevHash string, lines []string) string {
	h := sha256.New()
	h.Write([]byte(prevHash))

	var n [8]byte
	for _, l := range lines {
		binary.BigEndian.PutUint64(n[:], uint64(len(l)))
		h.Write(n[:])
		h.Write([]byte(l))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Short is the first 12 hex characters, for logs.
func Short(hash string) string {
	if hash == "" {
		return "nil"
	}
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
