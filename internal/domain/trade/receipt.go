package trade

import (
	"fmt"
	"strings"
)

// FormatReceiptNo renders <prefix><YYYYMMDD>-<seq:06d> for a business date in YYYY-MM-DD form
func FormatReceiptNo(prefix, businessDate string, seq int64) string {
	return fmt.Sprintf("%s%s-%06d", prefix, strings.ReplaceAll(businessDate, "-", ""), seq)
}

// DisambiguateReceiptNo appends the n-th collision suffix (n >= 2)
func DisambiguateReceiptNo(base string, n int) string {
	return fmt.Sprintf("%s-%d", base, n)
}
