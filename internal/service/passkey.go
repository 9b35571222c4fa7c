package service

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"docspot/internal/model"
)

const (
	passkeyLength   = 10
	passkeyAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// generatePasskeys returns n distinct unused passkeys.
func generatePasskeys(n int) ([]model.Passkey, error) {
	return generatePasskeysFrom(rand.Reader, n)
}

func generatePasskeysFrom(r io.Reader, n int) ([]model.Passkey, error) {
	max := big.NewInt(int64(len(passkeyAlphabet)))
	seen := make(map[string]struct{}, n)
	keys := make([]model.Passkey, 0, n)
	for attempts := 0; len(keys) < n; attempts++ {
		if attempts > n*4 {
			return nil, fmt.Errorf("passkey pool: too many collisions")
		}
		buf := make([]byte, passkeyLength)
		for i := range buf {
			idx, err := rand.Int(r, max)
			if err != nil {
				return nil, err
			}
			buf[i] = passkeyAlphabet[idx.Int64()]
		}
		k := string(buf)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, model.Passkey{Key: k})
	}
	return keys, nil
}
