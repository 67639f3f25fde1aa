package reward_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/edithx/rewarder/internal/database/types"
	"github.com/edithx/rewarder/internal/database/types/enum"
	"github.com/edithx/rewarder/internal/metrics"
	"github.com/edithx/rewarder/internal/setup/config"
	"github.com/edithx/rewarder/internal/worker/reward"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var now = time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)

func newDistributor(t *testing.T, store reward.Store, opts ...reward.Option) *reward.Distributor {
	t.Helper()

	cfg := config.Default().Reward
	cfg.DailyPool = 1000

	opts = append([]reward.Option{reward.WithClock(func() time.Time { return now })}, opts...)

	return reward.New(store, cfg, "twitter", zaptest.NewLogger(t), opts...)
}

func TestDistributeTenParticipants(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	for i := 1; i <= 10; i++ {
		email := fmt.Sprintf("p%02d@example.com", i)
		store.addParticipant(types.Participant{Email: email})
		store.addApproved(int64(i), email, float64(i*10))
		store.state.boards[email] = 3
	}
	store.state.items[11] = item{owner: "p01@example.com", total: 99, status: enum.ContentStatusRejected}

	m := metrics.New()
	result, err := newDistributor(t, store, reward.WithMetrics(m)).Distribute(t.Context())
	require.NoError(t, err)

	assert.False(t, result.Skipped())
	assert.Equal(t, 10, result.Items)
	assert.Equal(t, 10, result.Participants)
	assert.Zero(t, result.Referrals)
	assert.InDelta(t, 1000, result.Distributed.InexactFloat64(), 1e-6)

	assert.Equal(t, "700", store.reward("p10@example.com").String())
	assert.Equal(t, "100", store.reward("p09@example.com").String())
	assert.Equal(t, "100", store.reward("p08@example.com").String())
	assert.Equal(t, "14.28571429", store.reward("p01@example.com").String())

	for id := int64(1); id <= 10; id++ {
		it := store.state.items[id]
		assert.True(t, it.rewarded, "item %d", id)
		assert.Equal(t, enum.ContentStatusRewarded, it.status, "item %d", id)
	}
	assert.False(t, store.state.items[11].rewarded)
	assert.Empty(t, store.state.boards)

	payouts, err := newDistributor(t, store).Payouts(t.Context(), result.RunID)
	require.NoError(t, err)
	assert.Len(t, payouts, 10)

	expected := `
# HELP rewarder_payout_runs_total Reward distribution runs, by outcome
# TYPE rewarder_payout_runs_total counter
rewarder_payout_runs_total{outcome="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected),
		"rewarder_payout_runs_total"))
}

func TestDistributeIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.addApproved(1, "alice@example.com", 50)

	distributor := newDistributor(t, store)

	first, err := distributor.Distribute(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Items)

	second, err := distributor.Distribute(t.Context())
	require.NoError(t, err)
	assert.True(t, second.Skipped())

	assert.Equal(t, "700", store.reward("alice@example.com").String())
}

func TestDistributeWithNothingApproved(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.state.items[1] = item{owner: "alice@example.com", total: 10, status: enum.ContentStatusPending}
	store.state.boards["alice@example.com"] = 2

	result, err := newDistributor(t, store).Distribute(t.Context())
	require.NoError(t, err)

	assert.True(t, result.Skipped())
	assert.Equal(t, "nothing to distribute", result.String())
	assert.Empty(t, store.state.payouts)
	assert.Equal(t, 2, store.state.boards["alice@example.com"])
}

func TestDistributeRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	for _, op := range []string{"IncrementReward", "MarkRewarded", "MarkRewardedPartial", "RecordPayouts"} {
		t.Run(op, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			store.failOn = op
			store.addApproved(1, "alice@example.com", 50)
			store.addApproved(2, "bob@example.com", 40)
			store.state.boards["alice@example.com"] = 1

			m := metrics.New()
			_, err := newDistributor(t, store, reward.WithMetrics(m)).Distribute(t.Context())
			require.Error(t, err)

			assert.Empty(t, store.state.rewards)
			assert.Empty(t, store.state.payouts)
			assert.Equal(t, 1, store.state.boards["alice@example.com"])
			for id, it := range store.state.items {
				assert.False(t, it.rewarded, "item %d", id)
				assert.Equal(t, enum.ContentStatusApproved, it.status, "item %d", id)
			}

			expected := `
# HELP rewarder_payout_runs_total Reward distribution runs, by outcome
# TYPE rewarder_payout_runs_total counter
rewarder_payout_runs_total{outcome="error"} 1
# HELP rewarder_points_distributed_total Reward points credited to participants, including referral bonuses
# TYPE rewarder_points_distributed_total counter
rewarder_points_distributed_total 0
`
			require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected),
				"rewarder_payout_runs_total", "rewarder_points_distributed_total"))
		})
	}
}

func TestDistributeReportsMismatchedStatusFlips(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.failOn = "MarkRewardedPartial"
	store.addApproved(1, "alice@example.com", 50)
	store.addApproved(2, "bob@example.com", 40)

	_, err := newDistributor(t, store).Distribute(t.Context())
	require.ErrorIs(t, err, reward.ErrRewardMismatch)
}

func TestDistributeReferralBonus(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.addParticipant(types.Participant{Email: "inviter@example.com", InviteCode: "INV1"})
	store.addParticipant(types.Participant{Email: "newbie@example.com", ReferralCode: "INV1"})
	store.addParticipant(types.Participant{Email: "veteran@example.com", ReferralCode: "INV1"})
	store.addParticipant(types.Participant{Email: "self@example.com", InviteCode: "SELF", ReferralCode: "SELF"})
	store.addParticipant(types.Participant{Email: "lost@example.com", ReferralCode: "NOPE"})
	store.state.rewards["veteran@example.com/twitter"] = decimalOf(t, "5")
	store.state.boards["inviter@example.com"] = 4

	store.addApproved(1, "newbie@example.com", 50)
	store.addApproved(2, "veteran@example.com", 40)
	store.addApproved(3, "self@example.com", 30)
	store.addApproved(4, "lost@example.com", 20)

	result, err := newDistributor(t, store).Distribute(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Referrals)
	assert.Equal(t, "10", store.reward("inviter@example.com").String())
	assert.Equal(t, 1, store.state.participants["inviter@example.com"].InvitesUsed)
	assert.Zero(t, store.state.participants["self@example.com"].InvitesUsed)
	assert.InDelta(t, 1010, result.Distributed.InexactFloat64(), 1e-6)
	assert.NotContains(t, store.state.boards, "inviter@example.com", "board of a bonus-only referrer was not cleared")

	payouts, err := newDistributor(t, store).Payouts(t.Context(), result.RunID)
	require.NoError(t, err)

	var referrals int
	for _, p := range payouts {
		if p.Kind == enum.PayoutKindReferral {
			referrals++
			assert.Equal(t, "inviter@example.com", p.Email)
			assert.Equal(t, "10", p.Amount.String())
		}
	}
	assert.Equal(t, 1, referrals)
}

func TestArchive(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.state.items[1] = item{status: enum.ContentStatusApproved, created: now.Add(-8 * 24 * time.Hour)}
	store.state.items[2] = item{status: enum.ContentStatusApproved, created: now.Add(-24 * time.Hour)}
	store.state.items[3] = item{status: enum.ContentStatusPending, created: now.Add(-30 * 24 * time.Hour)}
	store.state.items[4] = item{
		status: enum.ContentStatusRewarded, rewarded: true, created: now.Add(-30 * 24 * time.Hour),
	}

	archived, err := newDistributor(t, store).Archive(t.Context())
	require.NoError(t, err)

	assert.Equal(t, int64(1), archived)
	assert.Equal(t, enum.ContentStatusArchived, store.state.items[1].status)
	assert.Equal(t, enum.ContentStatusApproved, store.state.items[2].status)
	assert.Equal(t, enum.ContentStatusPending, store.state.items[3].status)
	assert.Equal(t, enum.ContentStatusRewarded, store.state.items[4].status)
}
