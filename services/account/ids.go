package account

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewUserID returns an identifier shaped <prefix>-<random4>-<hash5>.
func NewUserID(prefix, email string, now time.Time) (string, error) {
	random, err := randomString(4)
	if err != nil {
		return "", fmt.Errorf("failed to generate user id: %w", err)
	}

	salt, err := randomString(8)
	if err != nil {
		return "", fmt.Errorf("failed to generate user id: %w", err)
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s%d%s", email, now.UnixMilli(), salt)))
	hash := strings.ToUpper(hex.EncodeToString(sum[:])[:5])

	return fmt.Sprintf("%s-%s-%s", prefix, random, hash), nil
}

func randomString(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(base36)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = base36[idx.Int64()]
	}
	return string(out), nil
}
