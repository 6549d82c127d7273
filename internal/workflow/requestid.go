package workflow

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

var idSpan = big.NewInt(900000)

// NewRequestID returns a uniformly random id in 100000..999999.
func NewRequestID() (string, error) {
	n, err := rand.Int(rand.Reader, idSpan)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(100000+n.Int64(), 10), nil
}
