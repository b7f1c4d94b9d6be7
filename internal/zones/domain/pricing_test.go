package domain

import "testing"

func TestDensityBands(t *testing.T) {
	tests := []struct {
		count      int
		multiplier float64
		manual     bool
	}{
		{0, 1.00, false},
		{3, 1.00, false},
		{4, 1.25, false},
		{7, 1.25, false},
		{8, 1.50, false},
		{12, 1.50, false},
		{13, 1.75, true},
		{40, 1.75, true},
	}
	for _, tt := range tests {
		d := DensityFor(tt.count)
		if d.Multiplier != tt.multiplier || d.ManualApproval != tt.manual {
			t.Errorf("DensityFor(%d) = %+v", tt.count, d)
		}
	}
}

func TestQuoteUsesCumulativeCounts(t *testing.T) {
	quotes := Quote(CompetitorCounts{Tier1: 2, Tier2: 3, Tier3: 9}, 0)
	if len(quotes) != 3 {
		t.Fatalf("got %d quotes", len(quotes))
	}

	want := []struct {
		count  int
		annual float64
		auto   bool
	}{
		{2, 1800, true},
		{5, 3500, true},
		{14, 7350, false},
	}
	for i, w := range want {
		q := quotes[i]
		if q.CompetitorCount != w.count || q.AnnualPrice != w.annual || q.AutoCheckout != w.auto {
			t.Errorf("%s: got count=%d annual=%v auto=%v", q.Tier.ID, q.CompetitorCount, q.AnnualPrice, q.AutoCheckout)
		}
		if q.ROI != nil {
			t.Errorf("%s: ROI without avg ticket", q.Tier.ID)
		}
		if len(q.PaymentOptions) != 3 || q.PaymentOptions[0].Upfront != q.AnnualPrice {
			t.Errorf("%s: unexpected payment options %+v", q.Tier.ID, q.PaymentOptions)
		}
	}
}

func TestQuoteROI(t *testing.T) {
	quotes := Quote(CompetitorCounts{Tier1: 3}, 40)
	roi := quotes[0].ROI
	if roi == nil {
		t.Fatal("expected ROI")
	}
	// 320 searches, 3% conversion, share grows from 1/4 to 1: 7.2 customers a month.
	if roi.NewCustomersPerYear != 86 {
		t.Errorf("NewCustomersPerYear = %d", roi.NewCustomersPerYear)
	}
	if roi.NewRevenuePerYear != 8600 {
		t.Errorf("NewRevenuePerYear = %v", roi.NewRevenuePerYear)
	}
	if roi.PaybackDays <= 0 || roi.Multiple <= 0 {
		t.Errorf("unexpected ROI %+v", roi)
	}
}
