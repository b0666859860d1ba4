package sales

import "fmt"

const invoicePrefix = "INV-"

// FormatInvoice renders sequence n as INV-000001.
func FormatInvoice(n int64) string {
	return fmt.Sprintf("%s%06d", invoicePrefix, n)
}
