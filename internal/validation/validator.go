package validation

import (
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation
// registered for checkout requests.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// `required` does not catch whitespace-only strings; the checkout
	// contract demands non-blank nickname and email after trimming.
	v.RegisterStructValidation(checkoutStructValidation, CheckoutRequest{})

	return v
}

func checkoutStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CheckoutRequest)

	if strings.TrimSpace(req.PlayerNickname) == "" {
		sl.ReportError(req.PlayerNickname, "player_nickname", "PlayerNickname", "notblank", "")
	}
	if strings.TrimSpace(req.Email) == "" {
		sl.ReportError(req.Email, "email", "Email", "notblank", "")
	}
}
