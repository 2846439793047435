package rooms

import (
	"crypto/rand"
	"math/big"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the fixed size of a room code. Binary state frames carry the
// code as a prefix of exactly this many bytes.
const CodeLength = 4

// GenerateCode returns a random 4-character room code drawn from uppercase
// letters and digits. Uniqueness against live rooms is the registry's job.
func GenerateCode() (string, error) {
	code := make([]byte, CodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}
