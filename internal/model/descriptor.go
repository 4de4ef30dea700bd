package model

import (
	"strings"
)

// Descriptor is the acting-user string attached to transactions. Markers are
// appended after the user name so the payment method survives in a single
// free-text column.
type Descriptor struct {
	User       string
	Reason     string
	TxRef      string
	PaymentRef string
}

const (
	reasonMarker  = "[Reason:"
	txMarker      = "[Tx:"
	paymentMarker = "[ERef:"
)

// String renders the descriptor as "USER [Reason:r] [Tx:ref] [ERef:pref]".
func (d Descriptor) String() string {
	var b strings.Builder
	b.WriteString(d.User)
	for _, m := range []struct{ marker, value string }{
		{reasonMarker, d.Reason},
		{txMarker, d.TxRef},
		{paymentMarker, d.PaymentRef},
	} {
		if m.value == "" {
			continue
		}
		b.WriteString(" ")
		b.WriteString(m.marker)
		b.WriteString(m.value)
		b.WriteString("]")
	}
	return b.String()
}

// ParseDescriptor recovers the fields of a rendered descriptor.
func ParseDescriptor(s string) Descriptor {
	d := Descriptor{User: CleanUser(s)}
	d.Reason = markerValue(s, reasonMarker)
	d.TxRef = markerValue(s, txMarker)
	d.PaymentRef = markerValue(s, paymentMarker)
	return d
}

// CleanUser strips every marker and returns the bare user name.
func CleanUser(s string) string {
	if i := strings.Index(s, " ["); i >= 0 {
		s = s[:i]
	} else if strings.HasPrefix(s, "[") {
		s = ""
	}
	return strings.TrimSpace(s)
}

// PaymentMethodOf reports the payment method a descriptor implies.
func PaymentMethodOf(s string) string {
	if strings.Contains(s, paymentMarker) {
		return PaymentEWallet
	}
	return PaymentCash
}

func markerValue(s, marker string) string {
	i := strings.Index(s, marker)
	if i < 0 {
		return ""
	}
	rest := s[i+len(marker):]
	j := strings.Index(rest, "]")
	if j < 0 {
		return rest
	}
	return rest[:j]
}
