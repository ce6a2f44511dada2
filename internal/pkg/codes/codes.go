// Package codes generates the opaque tokens used as order numbers and
// reservation codes. Tokens embed the date for quick eyeballing on the
// floor, plus a uuid fragment for uniqueness.
package codes

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func OrderNumber(now time.Time) string {
	return token("ORD", now)
}

func ReservationCode(now time.Time) string {
	return token("RSV", now)
}

func token(prefix string, now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), suffix)
}
