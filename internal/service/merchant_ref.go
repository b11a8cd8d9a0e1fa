package service

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	merchantRefPrefix  = "PREMIUM"
	merchantRefCharset = "abcdefghijklmnopqrstuvwxyz0123456789"
	merchantRefSuffix  = 7
)

// NewMerchantRef returns PREMIUM-<unix millis>-<7 random [a-z0-9]>.
func NewMerchantRef(now time.Time) string {
	suffix := make([]byte, merchantRefSuffix)
	for i := range suffix {
		suffix[i] = merchantRefCharset[rand.Intn(len(merchantRefCharset))]
	}
	return fmt.Sprintf("%s-%d-%s", merchantRefPrefix, now.UnixMilli(), suffix)
}
