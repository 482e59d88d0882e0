package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the Postgres-backed Gateway implementation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `id, code, name, account_type, account_sub_type, normal_balance, level, parent_id, is_active, vat_applicable, created_at, updated_at`

// FindAccounts lists chart of accounts rows matching the filter, ordered by
// code.
func (r *Repository) FindAccounts(ctx context.Context, f AccountFilter) ([]Account, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("ledger: repository not initialised")
	}
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		args = append(args, string(f.Type))
		where = append(where, fmt.Sprintf("account_type = $%d", len(args)))
	}
	if len(f.SubTypes) > 0 {
		args = append(args, f.SubTypes)
		where = append(where, fmt.Sprintf("account_sub_type = ANY($%d)", len(args)))
	}
	if len(f.Codes) > 0 {
		args = append(args, f.Codes)
		where = append(where, fmt.Sprintf("code = ANY($%d)", len(args)))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}
	query := `SELECT ` + accountColumns + ` FROM chart_of_accounts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY code"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: find accounts: %w", err)
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.SubType, &a.NormalBalance, &a.Level, &a.ParentID, &a.IsActive, &a.VATApplicable, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetAccount fetches a single account by id.
func (r *Repository) GetAccount(ctx context.Context, id int64) (Account, error) {
	var a Account
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM chart_of_accounts WHERE id = $1`, id)
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.SubType, &a.NormalBalance, &a.Level, &a.ParentID, &a.IsActive, &a.VATApplicable, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("ledger: get account %d: %w", id, err)
	}
	return a, nil
}

// FindPostedEntryLines returns journal entry lines with their entry header
// and account embedded. Only POSTED entries are visible through this query.
func (r *Repository) FindPostedEntryLines(ctx context.Context, f LineFilter) ([]EntryLine, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("ledger: repository not initialised")
	}
	args := []any{string(EntryStatusPosted)}
	where := []string{"e.status = $1"}
	if f.AsOf != nil {
		args = append(args, *f.AsOf)
		where = append(where, fmt.Sprintf("e.entry_date <= $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("e.entry_date >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("e.entry_date <= $%d", len(args)))
	}
	if len(f.AccountCodes) > 0 {
		args = append(args, f.AccountCodes)
		where = append(where, fmt.Sprintf("a.code = ANY($%d)", len(args)))
	}
	if f.AccountType != "" {
		args = append(args, string(f.AccountType))
		where = append(where, fmt.Sprintf("a.account_type = $%d", len(args)))
	}
	if len(f.SubTypes) > 0 {
		args = append(args, f.SubTypes)
		where = append(where, fmt.Sprintf("a.account_sub_type = ANY($%d)", len(args)))
	}
	if f.SubsidiaryID != "" {
		args = append(args, f.SubsidiaryID)
		where = append(where, fmt.Sprintf("e.subsidiary_id = $%d", len(args)))
	}
	if f.ProjectID != "" {
		args = append(args, f.ProjectID)
		where = append(where, fmt.Sprintf("e.project_id = $%d", len(args)))
	}

	query := `
SELECT l.id, l.debit_amount, l.credit_amount, COALESCE(l.description, ''),
       e.id, e.entry_number, e.entry_date, COALESCE(e.description, ''), e.status,
       COALESCE(e.subsidiary_id, ''), COALESCE(e.project_id, ''),
       e.total_debit, e.total_credit,
       COALESCE(e.created_by, ''), COALESCE(e.posted_by, ''), e.posted_at, e.reversed, e.created_at,
       a.id, a.code, a.name, a.account_type, a.account_sub_type, a.normal_balance,
       a.level, a.parent_id, a.is_active, a.vat_applicable, a.created_at, a.updated_at
FROM journal_entry_lines l
JOIN journal_entries e ON e.id = l.journal_entry_id
JOIN chart_of_accounts a ON a.id = l.account_id
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY e.entry_date, e.entry_number, l.id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: find posted lines: %w", err)
	}
	defer rows.Close()
	var lines []EntryLine
	for rows.Next() {
		var ln EntryLine
		if err := rows.Scan(
			&ln.ID, &ln.DebitAmount, &ln.CreditAmount, &ln.Description,
			&ln.Entry.ID, &ln.Entry.EntryNumber, &ln.Entry.EntryDate, &ln.Entry.Description, &ln.Entry.Status,
			&ln.Entry.SubsidiaryID, &ln.Entry.ProjectID,
			&ln.Entry.TotalDebit, &ln.Entry.TotalCredit,
			&ln.Entry.CreatedBy, &ln.Entry.PostedBy, &ln.Entry.PostedAt, &ln.Entry.Reversed, &ln.Entry.CreatedAt,
			&ln.Account.ID, &ln.Account.Code, &ln.Account.Name, &ln.Account.Type, &ln.Account.SubType, &ln.Account.NormalBalance,
			&ln.Account.Level, &ln.Account.ParentID, &ln.Account.IsActive, &ln.Account.VATApplicable, &ln.Account.CreatedAt, &ln.Account.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ledger: scan line: %w", err)
		}
		lines = append(lines, ln)
	}
	return lines, rows.Err()
}

// ListPostedEntries returns journal entry headers within the filter window,
// ordered by date then entry number.
func (r *Repository) ListPostedEntries(ctx context.Context, f EntryFilter) ([]JournalEntry, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("ledger: repository not initialised")
	}
	args := []any{string(EntryStatusPosted)}
	where := []string{"status = $1"}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("entry_date >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("entry_date <= $%d", len(args)))
	}
	if f.SubsidiaryID != "" {
		args = append(args, f.SubsidiaryID)
		where = append(where, fmt.Sprintf("subsidiary_id = $%d", len(args)))
	}
	if f.ProjectID != "" {
		args = append(args, f.ProjectID)
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	}
	query := `
SELECT id, entry_number, entry_date, COALESCE(description, ''), status,
       COALESCE(subsidiary_id, ''), COALESCE(project_id, ''),
       total_debit, total_credit,
       COALESCE(created_by, ''), COALESCE(posted_by, ''), posted_at, reversed, created_at
FROM journal_entries
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY entry_date, entry_number`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list posted entries: %w", err)
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(
			&e.ID, &e.EntryNumber, &e.EntryDate, &e.Description, &e.Status,
			&e.SubsidiaryID, &e.ProjectID, &e.TotalDebit, &e.TotalCredit,
			&e.CreatedBy, &e.PostedBy, &e.PostedAt, &e.Reversed, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ledger: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
