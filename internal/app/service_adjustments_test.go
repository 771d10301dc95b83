package app

import (
	"testing"

	"github.com/coinvest/funding-service/internal/domain"
)

func TestProposedApprovalAdjustments(t *testing.T) {
	tests := []struct {
		name          string
		amount        int64
		returnPercent float64
		bonusAmount   int64
		wantBalance   int64
		wantBonus     int64
		wantEarnings  int64
	}{
		{
			name:          "ten percent return with fixed bonus",
			amount:        50000,
			returnPercent: 10,
			bonusAmount:   5000,
			wantBalance:   50000,
			wantBonus:     5000,
			wantEarnings:  5000,
		},
		{
			name:          "zero return plan credits balance only",
			amount:        25000,
			returnPercent: 0,
			bonusAmount:   0,
			wantBalance:   25000,
			wantBonus:     0,
			wantEarnings:  0,
		},
		{
			name:          "fractional return rounds to nearest unit",
			amount:        999,
			returnPercent: 2.5,
			bonusAmount:   100,
			wantBalance:   999,
			wantBonus:     100,
			wantEarnings:  25,
		},
		{
			name:          "half unit rounds up",
			amount:        150,
			returnPercent: 1,
			bonusAmount:   0,
			wantBalance:   150,
			wantBonus:     0,
			wantEarnings:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := &domain.InvestmentPlan{ReturnPercent: tt.returnPercent, BonusAmount: tt.bonusAmount}
			got := proposedApprovalAdjustments(tt.amount, plan)
			if got.BalanceDelta != tt.wantBalance {
				t.Fatalf("expected balance delta %d, got %d", tt.wantBalance, got.BalanceDelta)
			}
			if got.BonusDelta != tt.wantBonus {
				t.Fatalf("expected bonus delta %d, got %d", tt.wantBonus, got.BonusDelta)
			}
			if got.EarningsDelta != tt.wantEarnings {
				t.Fatalf("expected earnings delta %d, got %d", tt.wantEarnings, got.EarningsDelta)
			}
		})
	}
}
