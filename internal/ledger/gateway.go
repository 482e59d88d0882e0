package ledger

import "context"

// Gateway exposes read access to the posted ledger. It is the only boundary
// the finance engine has with the persistence layer; implementations must
// restrict entry lookups to POSTED status.
type Gateway interface {
	FindAccounts(ctx context.Context, f AccountFilter) ([]Account, error)
	FindPostedEntryLines(ctx context.Context, f LineFilter) ([]EntryLine, error)
	ListPostedEntries(ctx context.Context, f EntryFilter) ([]JournalEntry, error)
}
