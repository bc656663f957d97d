package commissions

import (
	"math"

	"github.com/dmarquess/localdrop-backend/pkg/geo"
	"github.com/dmarquess/localdrop-backend/pkg/types"
)

const (
	baseAmount        = 5
	billableKmCeiling = 5
)

// AmountForDistance converts a shop-to-buyer distance in kilometers into the
// payable commission: a base of 5 plus one unit per started kilometer, with
// the distance portion capped at 5. The result is always in [5, 10].
func AmountForDistance(distanceKm float64) int {
	billed := int(math.Ceil(distanceKm))
	if billed < 0 {
		billed = 0
	}
	if billed > billableKmCeiling {
		billed = billableKmCeiling
	}
	return baseAmount + billed
}

// CalculateAmount computes the commission owed for delivering from shop to buyer.
func CalculateAmount(shop, buyer types.GeographyPoint) int {
	return AmountForDistance(geo.HaversineKm(shop, buyer))
}
