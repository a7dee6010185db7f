package project

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
)

// MemberPathInput identifies one member of one project.
type MemberPathInput struct {
	ID     string `path:"id" format:"uuid" doc:"Project UUID"`
	UserID string `path:"userID" format:"uuid" doc:"User UUID"`
}

// AddMemberInput is the Huma input for adding a member.
type AddMemberInput struct {
	ID   string `path:"id" format:"uuid" doc:"Project UUID"`
	Body struct {
		UserID string `json:"userID" format:"uuid" doc:"User UUID"`
		Role   string `json:"role" enum:"OWNER,MANAGER,MEMBER,VIEWER" doc:"Project role"`
	}
}

// ChangeRoleInput is the Huma input for changing a member's role.
type ChangeRoleInput struct {
	MemberPathInput
	Body struct {
		Role string `json:"role" enum:"OWNER,MANAGER,MEMBER,VIEWER" doc:"New project role, resets permissions to its defaults"`
	}
}

// TogglePermissionInput is the Huma input for flipping one permission.
type TogglePermissionInput struct {
	MemberPathInput
	Permission string `path:"permission" enum:"view_transactions,create_income,create_expense,approve_transactions,manage_accounts,manage_members,view_reports,edit_project" doc:"Permission to flip"`
}

// MemberOutput is the Huma output for endpoints returning one membership.
type MemberOutput struct {
	Body Member
}

// TogglePermissionOutput reports the membership after a toggle.
type TogglePermissionOutput struct {
	Body struct {
		Member  Member `json:"member"`
		Granted bool   `json:"granted" doc:"Whether the member holds the permission after the toggle"`
	}
}

// RemoveMemberOutput is empty; a removal answers 204.
type RemoveMemberOutput struct{}

type memberManager interface {
	AddMember(ctx context.Context, actor authz.Principal, projectID, userID uuid.UUID, role authz.Role) (*authz.Member, error)
	RemoveMember(ctx context.Context, actor authz.Principal, projectID, userID uuid.UUID) error
	ChangeRole(ctx context.Context, actor authz.Principal, projectID, userID uuid.UUID, role authz.Role) (*authz.Member, error)
	TogglePermission(ctx context.Context, actor authz.Principal, projectID, userID uuid.UUID, perm authz.Permission) (*authz.Member, bool, error)
}

// MembersHandler handles the membership endpoints of a project.
type MembersHandler struct {
	ProjectService memberManager
}

// NewMembersHandler creates a new MembersHandler.
func NewMembersHandler(svc memberManager) *MembersHandler {
	return &MembersHandler{ProjectService: svc}
}

// Register registers the membership endpoints with the Huma API.
func (h *MembersHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-project-member",
		Method:        http.MethodPost,
		Path:          "/v1/project/{id}/members",
		Summary:       "Add member",
		Tags:          []string{"Projects"},
		DefaultStatus: http.StatusCreated,
	}, h.add)

	huma.Register(api, huma.Operation{
		OperationID:   "remove-project-member",
		Method:        http.MethodDelete,
		Path:          "/v1/project/{id}/members/{userID}",
		Summary:       "Remove member",
		Tags:          []string{"Projects"},
		DefaultStatus: http.StatusNoContent,
	}, h.remove)

	huma.Register(api, huma.Operation{
		OperationID: "change-member-role",
		Method:      http.MethodPut,
		Path:        "/v1/project/{id}/members/{userID}/role",
		Summary:     "Change member role",
		Tags:        []string{"Projects"},
	}, h.changeRole)

	huma.Register(api, huma.Operation{
		OperationID: "toggle-member-permission",
		Method:      http.MethodPost,
		Path:        "/v1/project/{id}/members/{userID}/permissions/{permission}/toggle",
		Summary:     "Toggle member permission",
		Description: "Grants the permission when the member lacks it and revokes it otherwise.",
		Tags:        []string{"Projects"},
	}, h.toggle)
}

func parseMemberPath(input MemberPathInput) (projectID, userID uuid.UUID, err error) {
	if projectID, err = shared.ParseUUID("id", input.ID); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if userID, err = shared.ParseUUID("userID", input.UserID); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return projectID, userID, nil
}

func (h *MembersHandler) add(ctx context.Context, input *AddMemberInput) (*MemberOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	projectID, userID, err := parseMemberPath(MemberPathInput{ID: input.ID, UserID: input.Body.UserID})
	if err != nil {
		return nil, err
	}

	member, err := h.ProjectService.AddMember(ctx, actor, projectID, userID, authz.Role(input.Body.Role))
	if err != nil {
		return nil, shared.Error(err, "failed to add member")
	}
	shared.AddData(ctx, "projectID", projectID.String())
	return &MemberOutput{Body: MemberFromModel(*member)}, nil
}

func (h *MembersHandler) remove(ctx context.Context, input *MemberPathInput) (*RemoveMemberOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	projectID, userID, err := parseMemberPath(*input)
	if err != nil {
		return nil, err
	}

	if err := h.ProjectService.RemoveMember(ctx, actor, projectID, userID); err != nil {
		return nil, shared.Error(err, "failed to remove member")
	}
	shared.AddData(ctx, "projectID", projectID.String())
	return &RemoveMemberOutput{}, nil
}

func (h *MembersHandler) changeRole(ctx context.Context, input *ChangeRoleInput) (*MemberOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	projectID, userID, err := parseMemberPath(input.MemberPathInput)
	if err != nil {
		return nil, err
	}

	member, err := h.ProjectService.ChangeRole(ctx, actor, projectID, userID, authz.Role(input.Body.Role))
	if err != nil {
		return nil, shared.Error(err, "failed to change role")
	}
	return &MemberOutput{Body: MemberFromModel(*member)}, nil
}

func (h *MembersHandler) toggle(ctx context.Context, input *TogglePermissionInput) (*TogglePermissionOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	projectID, userID, err := parseMemberPath(input.MemberPathInput)
	if err != nil {
		return nil, err
	}

	member, granted, err := h.ProjectService.TogglePermission(ctx, actor, projectID, userID, authz.Permission(input.Permission))
	if err != nil {
		return nil, shared.Error(err, "failed to toggle permission")
	}

	out := &TogglePermissionOutput{}
	out.Body.Member = MemberFromModel(*member)
	out.Body.Granted = granted
	return out, nil
}
