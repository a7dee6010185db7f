package reference

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
)

// ActivityEntry is the API form of one audit entry.
type ActivityEntry struct {
	ID         string            `json:"id"`
	ActorID    string            `json:"actorID" doc:"Acting user, the nil UUID for the scheduler"`
	Action     string            `json:"action" doc:"Dotted action name such as transaction.approve"`
	EntityType string            `json:"entityType"`
	EntityID   string            `json:"entityID"`
	Details    map[string]string `json:"details,omitempty"`
	Timestamp  string            `json:"timestamp"`
}

// ListActivityInput is the Huma input for reading the audit trail.
type ListActivityInput struct {
	EntityID string `query:"entityID" doc:"Restrict to one entity"`
	Limit    int    `query:"limit" minimum:"0" maximum:"200" doc:"Maximum entries, defaults to 20"`
}

// ListActivityOutput is the Huma output for reading the audit trail.
type ListActivityOutput struct {
	Body struct {
		Entries []ActivityEntry `json:"entries" doc:"Newest first"`
	}
}

type activityLister interface {
	ListActivity(ctx context.Context, actor authz.Principal, entityID *uuid.UUID, limit int) ([]models.ActivityLog, error)
}

// ActivityHandler handles GET /v1/activity.
type ActivityHandler struct {
	ReferenceService activityLister
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(svc activityLister) *ActivityHandler {
	return &ActivityHandler{ReferenceService: svc}
}

// Register registers the activity endpoint with the Huma API.
func (h *ActivityHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-activity",
		Method:      http.MethodGet,
		Path:        "/v1/activity",
		Summary:     "Read audit trail",
		Tags:        []string{"Reference"},
	}, h.handle)
}

func (h *ActivityHandler) handle(ctx context.Context, input *ListActivityInput) (*ListActivityOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	entityID, err := shared.ParseOptionalUUID("entityID", input.EntityID)
	if err != nil {
		return nil, err
	}

	entries, err := h.ReferenceService.ListActivity(ctx, actor, entityID, input.Limit)
	if err != nil {
		return nil, shared.Error(err, "failed to list activity")
	}

	out := &ListActivityOutput{}
	out.Body.Entries = make([]ActivityEntry, len(entries))
	for i, e := range entries {
		out.Body.Entries[i] = ActivityEntry{
			ID:         e.ID.String(),
			ActorID:    e.ActorID.String(),
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID.String(),
			Details:    e.Details,
			Timestamp:  shared.FormatTime(e.Timestamp),
		}
	}
	return out, nil
}
