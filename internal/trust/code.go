package trust

import (
	"crypto/rand"
	"fmt"

	"github.com/shoyaib4265a/st-shop-poss/internal/model"
)

// Approval codes are 6 uppercase alphanumerics — short enough to read
// over the phone.
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// newCode returns a fresh approval code unique among the currently
// outstanding pendings. Global historical uniqueness is not needed — a code
// only has to be unambiguous while its request is alive.
func newCode(ds *model.Dataset) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		buf := make([]byte, codeLength)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("trust: generate code: %w", err)
		}
		for i, b := range buf {
			buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
		}
		code := string(buf)
		if ds.FindPending(code) == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("trust: could not generate a unique approval code")
}
