package reward_test

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/edithx/rewarder/internal/database/models"
	"github.com/edithx/rewarder/internal/database/types"
	"github.com/edithx/rewarder/internal/database/types/enum"
	"github.com/edithx/rewarder/internal/worker/reward"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errInjected = errors.New("injected failure")

type item struct {
	owner    string
	total    float64
	status   enum.ContentStatus
	rewarded bool
	created  time.Time
}

// state is everything the fake store persists.
type state struct {
	items        map[int64]item
	participants map[string]types.Participant
	rewards      map[string]decimal.Decimal
	boards       map[string]int
	payouts      []*types.RewardPayout
}

func (s state) clone() state {
	c := state{
		items:        maps.Clone(s.items),
		participants: maps.Clone(s.participants),
		rewards:      maps.Clone(s.rewards),
		boards:       maps.Clone(s.boards),
		payouts:      slices.Clone(s.payouts),
	}
	return c
}

// fakeStore commits a transaction's writes only when it succeeds.
type fakeStore struct {
	mu       sync.Mutex
	state    state
	platform string
	failOn   string
	txCount  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		platform: "twitter",
		state: state{
			items:        make(map[int64]item),
			participants: make(map[string]types.Participant),
			rewards:      make(map[string]decimal.Decimal),
			boards:       make(map[string]int),
		},
	}
}

func (s *fakeStore) addApproved(id int64, owner string, total float64) {
	s.state.items[id] = item{owner: owner, total: total, status: enum.ContentStatusApproved}
}

func (s *fakeStore) addParticipant(p types.Participant) {
	s.state.participants[p.Email] = p
}

func (s *fakeStore) reward(email string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.rewards[email+"/"+s.platform]
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx reward.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txCount++
	tx := &fakeTx{store: s, state: s.state.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func (s *fakeStore) ArchiveApproved(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var archived int64
	for id, it := range s.state.items {
		if it.status == enum.ContentStatusApproved && !it.rewarded && it.created.Before(before) {
			it.status = enum.ContentStatusArchived
			s.state.items[id] = it
			archived++
		}
	}
	return archived, nil
}

func (s *fakeStore) GetPayoutRun(_ context.Context, runID uuid.UUID) ([]*types.RewardPayout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var run []*types.RewardPayout
	for _, p := range s.state.payouts {
		if p.RunID == runID {
			run = append(run, p)
		}
	}
	return run, nil
}

type fakeTx struct {
	store *fakeStore
	state state
}

func (t *fakeTx) fail(op string) error {
	if t.store.failOn == op {
		return fmt.Errorf("%s: %w", op, errInjected)
	}
	return nil
}

func (t *fakeTx) GetApprovedUnrewarded(context.Context) ([]types.ApprovedContent, error) {
	if err := t.fail("GetApprovedUnrewarded"); err != nil {
		return nil, err
	}

	var approved []types.ApprovedContent
	for _, id := range slices.Sorted(maps.Keys(t.state.items)) {
		it := t.state.items[id]
		if it.status == enum.ContentStatusApproved && !it.rewarded {
			approved = append(approved, types.ApprovedContent{ID: id, OwnerEmail: it.owner, Total: it.total})
		}
	}
	return approved, nil
}

func (t *fakeTx) GetParticipants(_ context.Context, emails []string) (map[string]*types.Participant, error) {
	found := make(map[string]*types.Participant)
	for _, email := range emails {
		if p, ok := t.state.participants[email]; ok {
			found[email] = &p
		}
	}
	return found, nil
}

func (t *fakeTx) GetTotalRewards(_ context.Context, emails []string, platform string) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	for _, email := range emails {
		if total, ok := t.state.rewards[email+"/"+platform]; ok {
			totals[email] = total
		}
	}
	return totals, nil
}

func (t *fakeTx) GetByInviteCode(_ context.Context, code string) (*types.Participant, error) {
	for _, p := range t.state.participants {
		if p.InviteCode == code {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: invite code %s", models.ErrParticipantNotFound, code)
}

func (t *fakeTx) IncrementReward(_ context.Context, email, platform string, amount decimal.Decimal) error {
	if err := t.fail("IncrementReward"); err != nil {
		return err
	}
	key := email + "/" + platform
	t.state.rewards[key] = t.state.rewards[key].Add(amount)
	return nil
}

func (t *fakeTx) IncrementInvitesUsed(_ context.Context, email string) error {
	p := t.state.participants[email]
	p.InvitesUsed++
	t.state.participants[email] = p
	return nil
}

func (t *fakeTx) ClearBoard(_ context.Context, emails []string) error {
	for _, email := range emails {
		delete(t.state.boards, email)
	}
	return nil
}

func (t *fakeTx) MarkRewarded(_ context.Context, ids []int64) (int64, error) {
	if err := t.fail("MarkRewarded"); err != nil {
		return 0, err
	}

	var marked int64
	for _, id := range ids {
		it, ok := t.state.items[id]
		if !ok || it.status != enum.ContentStatusApproved || it.rewarded {
			continue
		}
		if t.store.failOn == "MarkRewardedPartial" && marked > 0 {
			continue
		}
		it.status = enum.ContentStatusRewarded
		it.rewarded = true
		t.state.items[id] = it
		marked++
	}
	return marked, nil
}

func (t *fakeTx) RecordPayouts(_ context.Context, payouts []*types.RewardPayout) error {
	if err := t.fail("RecordPayouts"); err != nil {
		return err
	}
	t.state.payouts = append(t.state.payouts, payouts...)
	return nil
}

func decimalOf(t interface{ Helper() }, value string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(value)
}
