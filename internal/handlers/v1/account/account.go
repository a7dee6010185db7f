package account

import (
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
)

// Account is the API response model for an account.
type Account struct {
	ID             string `json:"id" doc:"Account UUID"`
	Name           string `json:"name" doc:"Account name"`
	Currency       string `json:"currency" doc:"ISO 4217 code"`
	Balance        string `json:"balance" doc:"Decimal balance"`
	OpeningBalance string `json:"openingBalance" doc:"Decimal balance when the account was opened"`
	ProjectID      string `json:"projectID,omitempty" doc:"Owning project UUID, absent for shared accounts"`
	IsLocked       bool   `json:"isLocked" doc:"Locked accounts accept no new transactions"`
	CreatedAt      string `json:"createdAt" doc:"RFC3339 creation time"`
}

// FromModel converts a stored account into its API form.
func FromModel(a models.Account) Account {
	return Account{
		ID:             a.ID.String(),
		Name:           a.Name,
		Currency:       a.Currency,
		Balance:        a.Balance.String(),
		OpeningBalance: a.OpeningBalance.String(),
		ProjectID:      shared.FormatOptionalUUID(a.ProjectID),
		IsLocked:       a.IsLocked,
		CreatedAt:      shared.FormatTime(a.CreatedAt),
	}
}
