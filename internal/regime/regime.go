// Package regime classifies the macro backdrop on four axes (volatility,
// dollar, yield curve, credit) and derives the position-size multiplier
// the digest and analysis layers report.
package regime

import (
	"math"
)

// Volatility regimes, from the VIX level.
const (
	VolCrisis   = "crisis"
	VolFear     = "fear"
	VolElevated = "elevated"
	VolNormal   = "normal"
	VolCalm     = "calm"
)

// Dollar regimes, from the absolute DXY level.
const (
	DollarStrong  = "strong"
	DollarWeak    = "weak"
	DollarNeutral = "neutral"
)

// Curve regimes, from the 2s10s spread in percentage points.
const (
	CurveSteep    = "steep"
	CurveNormal   = "normal"
	CurveFlat     = "flat"
	CurveInverted = "inverted"
)

// Credit regimes, from the high-yield OAS in basis points.
const (
	CreditCrisis   = "crisis"
	CreditStressed = "stressed"
	CreditWide     = "wide"
	CreditNormal   = "normal"
	CreditTight    = "tight"
)

// Unknown is the regime when the input series is missing.
const Unknown = "unknown"

// Classification thresholds.
const (
	vixCrisis   = 40.0
	vixFear     = 30.0
	vixElevated = 20.0
	vixNormal   = 15.0

	dxyStrong = 105.0
	dxyWeak   = 95.0

	curveSteep  = 1.0
	curveNormal = 0.25
	curveFlat   = 0.0

	hyCrisis   = 800.0
	hyStressed = 500.0
	hyWide     = 400.0
	hyNormal   = 300.0
)

// volatilityMultipliers scale position size by volatility regime.
var volatilityMultipliers = map[string]float64{
	VolCrisis:   0.25,
	VolFear:     0.50,
	VolElevated: 0.75,
	VolNormal:   1.0,
	VolCalm:     1.0,
	Unknown:     1.0,
}

// creditMultipliers scale position size by credit regime.
var creditMultipliers = map[string]float64{
	CreditCrisis:   0.25,
	CreditStressed: 0.50,
	CreditWide:     0.75,
	CreditNormal:   1.0,
	CreditTight:    1.0,
	Unknown:        1.0,
}

// ClassifyVolatility maps a VIX close to a volatility regime.
func ClassifyVolatility(vix *float64) string {
	if vix == nil {
		return Unknown
	}
	switch {
	case *vix >= vixCrisis:
		return VolCrisis
	case *vix >= vixFear:
		return VolFear
	case *vix >= vixElevated:
		return VolElevated
	case *vix >= vixNormal:
		return VolNormal
	default:
		return VolCalm
	}
}

// ClassifyDollar maps a DXY close to a dollar regime. Classification is
// on the absolute level, not the day change.
func ClassifyDollar(dxy *float64) string {
	if dxy == nil {
		return Unknown
	}
	switch {
	case *dxy >= dxyStrong:
		return DollarStrong
	case *dxy <= dxyWeak:
		return DollarWeak
	default:
		return DollarNeutral
	}
}

// ClassifyCurve maps the 2s10s spread (percentage points) to a curve
// regime.
func ClassifyCurve(spread *float64) string {
	if spread == nil {
		return Unknown
	}
	switch {
	case *spread >= curveSteep:
		return CurveSteep
	case *spread >= curveNormal:
		return CurveNormal
	case *spread >= curveFlat:
		return CurveFlat
	default:
		return CurveInverted
	}
}

// ClassifyCredit maps the high-yield OAS (basis points) to a credit
// regime.
func ClassifyCredit(oas *float64) string {
	if oas == nil {
		return Unknown
	}
	switch {
	case *oas >= hyCrisis:
		return CreditCrisis
	case *oas >= hyStressed:
		return CreditStressed
	case *oas >= hyWide:
		return CreditWide
	case *oas >= hyNormal:
		return CreditNormal
	default:
		return CreditTight
	}
}

// SizeMultiplier is the suggested position-size scale: the more
// restrictive of the volatility and credit regimes wins.
func SizeMultiplier(volatilityRegime, creditRegime string) float64 {
	vol, ok := volatilityMultipliers[volatilityRegime]
	if !ok {
		vol = 1.0
	}
	credit, ok := creditMultipliers[creditRegime]
	if !ok {
		credit = 1.0
	}
	return math.Min(vol, credit)
}
