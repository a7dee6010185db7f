package actions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/currency"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

const TransferCategory = "Transfer"

// Transfer moves money between two accounts as a pair of APPROVED
// transactions sharing one correlation reference. Both balances change in
// the same write.
type Transfer struct {
	Actor         authz.Principal
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	// ManualRate overrides the rate table when set.
	ManualRate  *decimal.Decimal
	Rates       currency.RateTable
	Description string
	Date        time.Time
	Now         time.Time

	Reference string
	Rate      decimal.Decimal
	Received  decimal.Decimal
	Out       models.Transaction
	In        models.Transaction
}

func (t *Transfer) Name() string { return "Transfer" }

func (t *Transfer) Perform(ctx context.Context, writer *storage.Writer) error {
	if !t.Actor.IsAdmin {
		return domainerr.PermissionDenied(string(authz.RoleAdmin))
	}
	if t.FromAccountID == t.ToAccountID {
		return domainerr.InvalidStateTransition("cannot transfer from account %s to itself", t.FromAccountID)
	}
	if !t.Amount.IsPositive() {
		return domainerr.Validation("amount", "must be greater than zero")
	}
	if t.ManualRate != nil && !t.ManualRate.IsPositive() {
		return domainerr.Validation("manualRate", "must be greater than zero")
	}

	from, to, err := t.lockAccounts(ctx, writer)
	if err != nil {
		return err
	}
	if from.IsLocked {
		return domainerr.InvalidStateTransition("account %s is locked", from.ID)
	}
	if to.IsLocked {
		return domainerr.InvalidStateTransition("account %s is locked", to.ID)
	}
	if t.Amount.GreaterThan(from.Balance) {
		return domainerr.InsufficientBalance("transfer of %s %s exceeds balance %s of account %s",
			t.Amount.String(), from.Currency, from.Balance.String(), from.ID)
	}

	switch {
	case from.Currency == to.Currency:
		t.Rate = decimal.NewFromInt(1)
	case t.ManualRate != nil:
		t.Rate = *t.ManualRate
	default:
		t.Rate = currency.CrossRate(from.Currency, to.Currency, t.Rates)
	}
	t.Received = t.Amount.Mul(t.Rate).Round(2)
	if !t.Received.IsPositive() {
		return domainerr.Validation("amount", "converts to %s %s at rate %s", t.Received.String(), to.Currency, t.Rate.String())
	}

	ref, err := uuid.NewV4()
	if err != nil {
		return err
	}
	t.Reference = ref.String()

	date := t.Date
	if date.IsZero() {
		date = t.Now
	}
	decided := t.Now
	actorID := t.Actor.UserID
	note := strings.TrimSpace(t.Description)

	t.Out = models.Transaction{
		ID:          uuid.Must(uuid.NewV4()),
		Type:        models.TransactionOut,
		Amount:      t.Amount,
		Currency:    from.Currency,
		Category:    TransferCategory,
		Description: describeLeg("to", to, t.Reference, note),
		AccountID:   from.ID,
		ProjectID:   from.ProjectID,
		Status:      models.StatusApproved,
		CreatedBy:   actorID,
		ApprovedBy:  &actorID,
		TransferRef: t.Reference,
		Date:        date,
		CreatedAt:   t.Now,
		UpdatedAt:   t.Now,
		DecidedAt:   &decided,
	}
	t.In = models.Transaction{
		ID:          uuid.Must(uuid.NewV4()),
		Type:        models.TransactionIn,
		Amount:      t.Received,
		Currency:    to.Currency,
		Category:    TransferCategory,
		Description: describeLeg("from", from, t.Reference, note),
		AccountID:   to.ID,
		ProjectID:   to.ProjectID,
		Status:      models.StatusApproved,
		CreatedBy:   actorID,
		ApprovedBy:  &actorID,
		TransferRef: t.Reference,
		Date:        date,
		CreatedAt:   t.Now,
		UpdatedAt:   t.Now,
		DecidedAt:   &decided,
	}

	for _, leg := range []*models.Transaction{&t.Out, &t.In} {
		if err := writer.Transaction.Insert(ctx, leg); err != nil {
			return err
		}
	}
	if err := writer.Account.UpdateBalance(ctx, from.ID, from.Balance.Sub(t.Amount)); err != nil {
		return err
	}
	return writer.Account.UpdateBalance(ctx, to.ID, to.Balance.Add(t.Received))
}

// lockAccounts locks both accounts in id order so two opposite transfers
// cannot deadlock.
func (t *Transfer) lockAccounts(ctx context.Context, writer *storage.Writer) (*models.Account, *models.Account, error) {
	type target struct {
		id    uuid.UUID
		field string
		dst   **models.Account
	}
	var from, to *models.Account
	order := []target{
		{id: t.FromAccountID, field: "fromAccountId", dst: &from},
		{id: t.ToAccountID, field: "toAccountId", dst: &to},
	}
	if order[1].id.String() < order[0].id.String() {
		order[0], order[1] = order[1], order[0]
	}
	for _, tgt := range order {
		acc, err := writer.Account.FindByIDForUpdate(ctx, tgt.id)
		if err != nil {
			return nil, nil, linkageErr(err, tgt.field, tgt.id)
		}
		*tgt.dst = acc
	}
	return from, to, nil
}

func describeLeg(direction string, counterpart *models.Account, ref, note string) string {
	desc := fmt.Sprintf("Transfer %s %s [ref %s]", direction, counterpart.Name, ref)
	if note != "" {
		desc += " - " + note
	}
	return desc
}
