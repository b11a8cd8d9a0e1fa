package domain

import "encoding/json"

// PaymentChannel mirrors a gateway payment channel. Fee objects are kept raw
// so the upstream shape reaches the client untouched.
type PaymentChannel struct {
	Group       string          `json:"group"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Type        string          `json:"type,omitempty"`
	IconURL     string          `json:"icon_url"`
	Active      bool            `json:"active"`
	FeeMerchant json.RawMessage `json:"fee_merchant,omitempty"`
	FeeCustomer json.RawMessage `json:"fee_customer,omitempty"`
	TotalFee    json.RawMessage `json:"total_fee"`
	MinimumFee  *int64          `json:"minimum_fee,omitempty"`
	MaximumFee  *int64          `json:"maximum_fee,omitempty"`
}
