package enum

// PayoutKind is the reason a participant was credited.
//
//go:generate go tool enumer -type=PayoutKind -trimprefix=PayoutKind
type PayoutKind int

const (
	// PayoutKindTier is a share of the daily pool.
	PayoutKindTier PayoutKind = iota
	// PayoutKindReferral is the bonus paid to the inviter of a first-time earner.
	PayoutKindReferral
)

// RewardTier is the cohort a participant landed in for one distribution run.
//
//go:generate go tool enumer -type=RewardTier -trimprefix=RewardTier
type RewardTier int

const (
	RewardTierNone RewardTier = iota
	RewardTierTop
	RewardTierMiddle
	RewardTierRest
)
