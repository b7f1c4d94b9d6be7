package domain

import "math"

// Density classifies how crowded a territory is.
type Density struct {
	Count      int     `json:"count"`
	Multiplier float64 `json:"multiplier"`
	Label      string  `json:"label"`
	// ManualApproval is set when a supervisor must sign off on the price.
	ManualApproval bool `json:"manualApproval"`
}

// DensityFor returns the price band for competitorCount.
func DensityFor(competitorCount int) Density {
	switch {
	case competitorCount <= 3:
		return Density{Count: competitorCount, Multiplier: 1.00, Label: "Low density"}
	case competitorCount <= 7:
		return Density{Count: competitorCount, Multiplier: 1.25, Label: "Medium density"}
	case competitorCount <= 12:
		return Density{Count: competitorCount, Multiplier: 1.50, Label: "High density"}
	default:
		return Density{Count: competitorCount, Multiplier: 1.75, Label: "Ultra-high density", ManualApproval: true}
	}
}

// CompetitorCounts holds competitors found in each tier's ring. Rings do not
// overlap; tier2 excludes the tier1 ring.
type CompetitorCounts struct {
	Tier1 int
	Tier2 int
	Tier3 int
}

func (c CompetitorCounts) cumulative(tierID string) int {
	switch tierID {
	case "tier1":
		return c.Tier1
	case "tier2":
		return c.Tier1 + c.Tier2
	default:
		return c.Tier1 + c.Tier2 + c.Tier3
	}
}

// PaymentOption is one way of paying the annual price.
type PaymentOption struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	AnnualTotal float64 `json:"annualTotal"`
	Upfront     float64 `json:"upfront"`
	Monthly     float64 `json:"monthly,omitempty"`
	Months      int     `json:"months,omitempty"`
}

// ROI estimates what exclusivity is worth to the buyer.
type ROI struct {
	NewCustomersPerYear int     `json:"newCustomersPerYear"`
	NewRevenuePerYear   float64 `json:"newRevenuePerYear"`
	Multiple            float64 `json:"multiple"`
	PaybackDays         int     `json:"paybackDays"`
}

// TierQuote is the price of one tier for a given competitor landscape.
type TierQuote struct {
	Tier            Tier            `json:"tier"`
	CompetitorCount int             `json:"competitorCount"`
	Density         Density         `json:"density"`
	AnnualPrice     float64         `json:"annualPrice"`
	MonthlyEquiv    float64         `json:"monthlyEquiv"`
	AutoCheckout    bool            `json:"autoCheckout"`
	PaymentOptions  []PaymentOption `json:"paymentOptions"`
	ROI             *ROI            `json:"roi,omitempty"`
}

const (
	searchConversionRate = 0.03
	visitsPerYear        = 2.5
	financingPremium     = 1.21
	financingDownShare   = 0.20
	financingMonths      = 11
)

// Quote prices every tier. avgTicket is optional; ROI is omitted when it is zero.
func Quote(counts CompetitorCounts, avgTicket float64) []TierQuote {
	quotes := make([]TierQuote, 0, len(Tiers))
	for _, tier := range Tiers {
		count := counts.cumulative(tier.ID)
		density := DensityFor(count)
		annual := math.Round(tier.BasePrice * density.Multiplier)

		q := TierQuote{
			Tier:            tier,
			CompetitorCount: count,
			Density:         density,
			AnnualPrice:     annual,
			MonthlyEquiv:    math.Round(annual / 12),
			AutoCheckout:    !density.ManualApproval,
			PaymentOptions:  paymentOptions(annual),
		}
		if avgTicket > 0 {
			roi := estimateROI(tier, annual, avgTicket, count)
			q.ROI = &roi
		}
		quotes = append(quotes, q)
	}
	return quotes
}

func paymentOptions(annual float64) []PaymentOption {
	financed := roundCents(annual * financingPremium)
	down := roundCents(financed * financingDownShare)
	return []PaymentOption{
		{ID: "full", Label: "Pay in Full", AnnualTotal: annual, Upfront: annual},
		{ID: "split", Label: "Four installments", AnnualTotal: annual, Upfront: annual / 4, Monthly: annual / 4, Months: 4},
		{ID: "financed", Label: "Flexible Plan", AnnualTotal: financed, Upfront: down, Monthly: roundCents((financed - down) / financingMonths), Months: financingMonths},
	}
}

func estimateROI(tier Tier, annual, avgTicket float64, competitors int) ROI {
	searches := float64(tier.MonthlySearches)
	shareToday := 1 / float64(competitors+1)
	gainedPerMonth := searches*searchConversionRate - searches*shareToday*searchConversionRate

	perYear := int(math.Round(gainedPerMonth * 12))
	revenue := math.Round(float64(perYear) * avgTicket * visitsPerYear)

	roi := ROI{NewCustomersPerYear: perYear, NewRevenuePerYear: revenue}
	if revenue > 0 {
		roi.Multiple = math.Round(revenue/annual*10) / 10
		roi.PaybackDays = int(math.Round(annual / (revenue / 365)))
	}
	return roi
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
