/**
 * @description
 * This file contains the offer engine: pure pricing and benefit-mapping
 * logic with no I/O. It translates the admin-configured discount percentage
 * into the price shown to the user and into the free-days credit granted
 * through the billing provider.
 */
package app

import (
	"math"
	"strconv"
)

// BasePriceUSD is the monthly plan price the offer is computed against.
const BasePriceUSD = 99

// DefaultBenefitDays is granted for any discount percentage not present in
// the benefit table.
const DefaultBenefitDays = 7

// freeDaysByPercent maps a discount percentage to a free-days credit.
// The billing provider grants time-based credits rather than price changes,
// so the promotional rate is translated into a duration. The table is
// policy, not a formula; do not derive it arithmetically.
var freeDaysByPercent = map[string]int{
	"30":  10,
	"50":  15,
	"100": 30,
}

// BenefitDays returns the free-days credit for a discount percentage.
// Unknown or malformed values fall back to DefaultBenefitDays.
func BenefitDays(discountPercent string) int {
	if days, ok := freeDaysByPercent[discountPercent]; ok {
		return days
	}
	return DefaultBenefitDays
}

// Offer is the displayed pricing for a given discount.
type Offer struct {
	BasePrice       int    `json:"base_price"`
	DiscountPercent string `json:"discount_percent"`
	DisplayedPrice  int    `json:"displayed_price"`
	Savings         int    `json:"savings"`
}

// ComputeOffer calculates the displayed price and savings for a base price
// and a string-encoded discount percentage. Savings round half away from
// zero to the nearest whole currency unit; the displayed price is the base
// price minus the rounded savings, so the two always sum back to the base.
// A malformed percentage is treated as zero discount.
func ComputeOffer(basePrice int, discountPercent string) Offer {
	pct, err := strconv.Atoi(discountPercent)
	if err != nil || pct < 0 {
		pct = 0
	}

	savings := int(math.Round(float64(basePrice) * float64(pct) / 100))
	return Offer{
		BasePrice:       basePrice,
		DiscountPercent: discountPercent,
		DisplayedPrice:  basePrice - savings,
		Savings:         savings,
	}
}
