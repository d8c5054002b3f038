package gateway

// CheckoutConfig is the configuration object handed to the vendor checkout
// widget in the storefront. The widget is opaque: it receives this config and
// eventually fires exactly one terminal callback, success (with gateway ids
// and signature) or dismiss.
type CheckoutConfig struct {
	KeyID          string        `json:"key"`
	Amount         int64         `json:"amount"`
	Currency       string        `json:"currency"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	GatewayOrderID string        `json:"order_id"`
	Prefill        Prefill       `json:"prefill"`
	Notes          map[string]string `json:"notes,omitempty"`
	Theme          Theme         `json:"theme"`
	// EMI is present only for high-value orders; it toggles the widget's
	// expanded installment/financing options and carries no pricing authority.
	EMI *EMIOptions `json:"emi,omitempty"`
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact"`
}

type Theme struct {
	Color string `json:"color"`
}

// EMIOptions enables the installment block in the widget.
type EMIOptions struct {
	ShowEMI         bool  `json:"show_emi"`
	ShowCardlessEMI bool  `json:"show_cardless_emi"`
	ShowPayLater    bool  `json:"show_pay_later"`
	// MonthlyEstimate is the cosmetic "EMI from ₹X/mo" figure. Display only;
	// the gateway order amount is the authoritative charge.
	MonthlyEstimate int64 `json:"monthly_estimate"`
}

// Outcome is the widget's single terminal callback.
type Outcome struct {
	Kind             OutcomeKind
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
}

type OutcomeKind string

const (
	// OutcomeSuccess means the widget reported a completed payment; it still
	// needs signature verification before the order counts as paid.
	OutcomeSuccess OutcomeKind = "success"
	// OutcomeDismissed means the shopper closed the widget without paying.
	OutcomeDismissed OutcomeKind = "dismissed"
)
