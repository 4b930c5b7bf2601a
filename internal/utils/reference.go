package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// GenerateOrderReference returns ORD-YYYYMMDD-HHMMSS-mmm-RRRR in UTC.
func GenerateOrderReference() string {
	now := time.Now().UTC()

	datePart := now.Format("20060102-150405")
	millis := now.Nanosecond() / int(time.Millisecond)

	// 4-digit cryptographic random
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf(
		"ORD-%s-%03d-%04d",
		datePart,
		millis,
		n.Int64(),
	)
}

// GenerateSKU returns a placeholder SKU for products saved without one.
func GenerateSKU() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		n = big.NewInt(time.Now().UnixNano() % 1_000_000)
	}
	return "SKU-" + strings.ToUpper(strconv.FormatInt(n.Int64(), 36))
}
