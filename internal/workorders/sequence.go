package workorders

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Order numbers take the form YYYYMMDD-NNN, serialized per calendar day.
// A number is never reused once issued, even if its order is later
// deleted.

const orderNoDateLayout = "20060102"

// DayPrefix formats the date prefix of an order number for the given day.
func DayPrefix(day time.Time) string {
	return day.Format(orderNoDateLayout)
}

// NextOrderNo computes the successor of the greatest already-issued order
// number for the day. last is empty when no number exists for the prefix.
// An unparseable suffix is treated as zero rather than failing the
// allocation; the storage-layer uniqueness constraint remains the
// backstop.
func NextOrderNo(prefix, last string) string {
	if last == "" {
		return fmt.Sprintf("%s-001", prefix)
	}
	n := parseSuffix(last)
	return fmt.Sprintf("%s-%03d", prefix, n+1)
}

func parseSuffix(orderNo string) int {
	idx := strings.LastIndex(orderNo, "-")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(orderNo[idx+1:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}
