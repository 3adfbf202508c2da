package entity

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const (
	idAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	idRandomLen = 6
	idDelimiter = "_"
)

// NewID returns a collision-resistant identifier of the form <prefix>_<token>.
// The token combines the current unix-millisecond timestamp (base36) with six
// random base36 characters, so IDs are approximately time-correlated but not
// sortable. It never blocks and never fails.
func NewID(k Kind) string {
	var sb strings.Builder
	sb.WriteString(k.Prefix())
	sb.WriteString(idDelimiter)
	sb.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 36))
	for i := 0; i < idRandomLen; i++ {
		sb.WriteByte(idAlphabet[rand.IntN(len(idAlphabet))])
	}
	return sb.String()
}
