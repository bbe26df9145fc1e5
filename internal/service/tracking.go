package service

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

const trackingPrefix = "PRCL"

// GenerateTrackingID returns a human-readable parcel label of the form
// PRCL-YYYYMMDD-XXXXXX. It is not checked for uniqueness; the gateway
// transaction id is the real key.
func GenerateTrackingID(now time.Time) string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}

	return trackingPrefix + "-" + now.UTC().Format("20060102") + "-" + strings.ToUpper(hex.EncodeToString(buf))
}
