package enums

import "fmt"

// CheckoutStep tracks the position of one checkout attempt.
type CheckoutStep string

const (
	CheckoutStepAuth         CheckoutStep = "auth"
	CheckoutStepAddress      CheckoutStep = "address"
	CheckoutStepPayment      CheckoutStep = "payment"
	CheckoutStepReview       CheckoutStep = "review"
	CheckoutStepProcessing   CheckoutStep = "processing"
	CheckoutStepConfirmation CheckoutStep = "confirmation"
	CheckoutStepError        CheckoutStep = "error"
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepAuth,
	CheckoutStepAddress,
	CheckoutStepPayment,
	CheckoutStepReview,
	CheckoutStepProcessing,
	CheckoutStepConfirmation,
	CheckoutStepError,
}

// String implements fmt.Stringer.
func (c CheckoutStep) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStep.
func (c CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range validCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
