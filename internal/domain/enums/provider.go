package enums

import "strings"

type Provider string

const (
	ProviderPaystack Provider = "paystack"
	ProviderPayPal   Provider = "paypal"
)

func ParseProvider(raw string) (Provider, bool) {
	switch Provider(strings.ToLower(strings.TrimSpace(raw))) {
	case ProviderPaystack:
		return ProviderPaystack, true
	case ProviderPayPal:
		return ProviderPayPal, true
	default:
		return "", false
	}
}

func (p Provider) String() string {
	return string(p)
}
