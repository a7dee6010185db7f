package fixedcost

import (
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
)

// FixedCost is the API response model for a recurring cost template.
type FixedCost struct {
	ID            string `json:"id" doc:"Fixed cost UUID"`
	Name          string `json:"name" doc:"Template name, copied into generated descriptions"`
	Amount        string `json:"amount" doc:"Decimal amount per period"`
	Currency      string `json:"currency" doc:"ISO 4217 code of the account"`
	Cycle         string `json:"cycle" doc:"DAILY, WEEKLY, MONTHLY or YEARLY"`
	Status        string `json:"status" doc:"ON or OFF"`
	AccountID     string `json:"accountID" doc:"Account charged by generated transactions"`
	ProjectID     string `json:"projectID,omitempty" doc:"Project of generated transactions"`
	Category      string `json:"category,omitempty" doc:"Category of generated transactions"`
	LastGenerated string `json:"lastGenerated,omitempty" doc:"Period marker of the last generated transaction"`
	CreatedAt     string `json:"createdAt" doc:"RFC3339 creation time"`
}

// FromModel converts a stored fixed cost into its API form.
func FromModel(fc models.FixedCost) FixedCost {
	return FixedCost{
		ID:            fc.ID.String(),
		Name:          fc.Name,
		Amount:        fc.Amount.String(),
		Currency:      fc.Currency,
		Cycle:         string(fc.Cycle),
		Status:        string(fc.Status),
		AccountID:     fc.AccountID.String(),
		ProjectID:     shared.FormatOptionalUUID(fc.ProjectID),
		Category:      fc.Category,
		LastGenerated: fc.LastGenerated,
		CreatedAt:     shared.FormatTime(fc.CreatedAt),
	}
}
