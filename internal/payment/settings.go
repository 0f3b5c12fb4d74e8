package payment

import (
	"fmt"
	"strings"
)

// Settings configures one provider variant.
type Settings struct {
	Name          string
	PrivateKey    string
	WebhookSecret string

	ContinueURL string
	CancelURL   string
	ErrorURL    string

	Locale         string
	PaymentMethods string // comma separated
	ButtonText     string
	Capture        bool
	Recurring      bool
	TestMode       bool

	// Order property aliases used to fill the billing address.
	BillingCompanyProperty  string
	BillingAddress1Property string
	BillingAddress2Property string
	BillingCityProperty     string
	BillingZipProperty      string
	BillingStateProperty    string
	BillingPhoneProperty    string
}

// Validate checks the settings needed before any gateway call.
func (s Settings) Validate() error {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(s.PrivateKey) == "" {
		missing = append(missing, "private key")
	}
	if strings.TrimSpace(s.ContinueURL) == "" {
		missing = append(missing, "continue url")
	}
	if strings.TrimSpace(s.CancelURL) == "" {
		missing = append(missing, "cancel url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	return nil
}

// Methods splits PaymentMethods, dropping blanks.
func (s Settings) Methods() []string {
	var out []string
	for _, m := range strings.Split(s.PaymentMethods, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}
