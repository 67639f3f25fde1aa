package enum

// ContentStatus is the evaluation state of a content item. Transitions only
// move forward: Pending to Approved or Rejected, Approved to Rewarded or
// Archived.
//
//go:generate go tool enumer -type=ContentStatus -trimprefix=ContentStatus
type ContentStatus int

const (
	ContentStatusPending ContentStatus = iota
	ContentStatusApproved
	ContentStatusRewarded
	ContentStatusRejected
	ContentStatusArchived
)

// IsTerminal reports whether no evaluation may change the status anymore.
func (s ContentStatus) IsTerminal() bool {
	return s == ContentStatusRewarded || s == ContentStatusRejected || s == ContentStatusArchived
}
