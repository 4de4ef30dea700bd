package model

import "testing"

func TestDescriptorRoundTrip(t *testing.T) {
	tests := []struct {
		d    Descriptor
		want string
	}{
		{Descriptor{User: "CASHIER"}, "CASHIER"},
		{Descriptor{User: "manager", Reason: "Damaged"}, "manager [Reason:Damaged]"},
		{Descriptor{User: "CASHIER", TxRef: "abc"}, "CASHIER [Tx:abc]"},
		{Descriptor{User: "CASHIER", TxRef: "abc", PaymentRef: "GC-1"}, "CASHIER [Tx:abc] [ERef:GC-1]"},
	}

	for _, tt := range tests {
		got := tt.d.String()
		if got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
		if parsed := ParseDescriptor(got); parsed != tt.d {
			t.Errorf("ParseDescriptor(%q) = %+v, want %+v", got, parsed, tt.d)
		}
	}
}

func TestPaymentMethodOf(t *testing.T) {
	if got := PaymentMethodOf("CASHIER [Tx:1] [ERef:GC-9]"); got != PaymentEWallet {
		t.Errorf("expected %q, got %q", PaymentEWallet, got)
	}
	if got := PaymentMethodOf("CASHIER [Tx:1]"); got != PaymentCash {
		t.Errorf("expected %q, got %q", PaymentCash, got)
	}
}

func TestCleanUser(t *testing.T) {
	if got := CleanUser("  cashier [Tx:1]"); got != "cashier" {
		t.Errorf("expected 'cashier', got %q", got)
	}
	if got := CleanUser("[Tx:1]"); got != "" {
		t.Errorf("expected empty user, got %q", got)
	}
}
