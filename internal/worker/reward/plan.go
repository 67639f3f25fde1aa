package reward

import (
	"sort"

	"github.com/edithx/rewarder/internal/database/types"
	"github.com/edithx/rewarder/internal/database/types/enum"
	"github.com/shopspring/decimal"
)

// amountPrecision is the number of decimal places of a credited amount.
const amountPrecision = 8

// Pool shares of the three tiers.
var (
	topShare    = decimal.RequireFromString("0.7")
	middleShare = decimal.RequireFromString("0.2")
	restShare   = decimal.RequireFromString("0.1")
)

// Allocation is the credit one participant receives from the pool.
type Allocation struct {
	Email  string
	Score  float64
	Tier   enum.RewardTier
	Amount decimal.Decimal
}

// Plan is the outcome of splitting the pool over the approved content.
type Plan struct {
	Allocations []Allocation
	ItemIDs     []int64
}

// Emails returns the allocated participants in ranking order.
func (p Plan) Emails() []string {
	emails := make([]string, len(p.Allocations))
	for i, a := range p.Allocations {
		emails[i] = a.Email
	}
	return emails
}

// Total returns the sum of every allocation.
func (p Plan) Total() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}

// TierSizes returns how many of n participants land in the top, middle and
// rest tiers. The top tier takes ceil(10%), the middle tier ceil(20%) of what
// is left over, and the rest tier everyone else.
func TierSizes(n int) (top, middle, rest int) {
	if n <= 0 {
		return 0, 0, 0
	}

	top = min(n, (n+9)/10)
	middle = min(n-top, (2*n+9)/10)
	rest = n - top - middle

	return top, middle, rest
}

// ComputePlan aggregates the approved items by owner, orders owners by total
// score (highest first, ties by email) and splits pool 70/20/10 over the
// tiers. Each member of a tier gets an equal share rounded to 8 places; a tier
// without members keeps its share in the pool.
func ComputePlan(items []types.ApprovedContent, pool decimal.Decimal) Plan {
	if len(items) == 0 {
		return Plan{}
	}

	scores := make(map[string]float64)
	ids := make([]int64, 0, len(items))

	for _, item := range items {
		scores[item.OwnerEmail] += item.Total
		ids = append(ids, item.ID)
	}

	allocations := make([]Allocation, 0, len(scores))
	for email, score := range scores {
		allocations = append(allocations, Allocation{Email: email, Score: score})
	}

	sort.Slice(allocations, func(i, j int) bool {
		if allocations[i].Score != allocations[j].Score {
			return allocations[i].Score > allocations[j].Score
		}
		return allocations[i].Email < allocations[j].Email
	})

	top, middle, rest := TierSizes(len(allocations))

	tiers := []struct {
		tier  enum.RewardTier
		size  int
		share decimal.Decimal
	}{
		{enum.RewardTierTop, top, topShare},
		{enum.RewardTierMiddle, middle, middleShare},
		{enum.RewardTierRest, rest, restShare},
	}

	i := 0
	for _, t := range tiers {
		if t.size == 0 {
			continue
		}

		amount := pool.Mul(t.share).DivRound(decimal.NewFromInt(int64(t.size)), amountPrecision)
		for end := i + t.size; i < end; i++ {
			allocations[i].Tier = t.tier
			allocations[i].Amount = amount
		}
	}

	return Plan{Allocations: allocations, ItemIDs: ids}
}
