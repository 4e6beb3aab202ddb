// Package permission holds the single decision function gating every
// workspace action. It is pure: no storage, no clock, no side effects.
package permission

import (
	"github.com/bwmarrin/snowflake"

	workspacedomain "github.com/syncspace/syncspace/internal/workspace/domain"
)

// Action identifies an operation a member may attempt on a resource.
type Action string

const (
	ActionCreateTask            Action = "task.create"
	ActionStartTask             Action = "task.start"
	ActionRequestTaskCompletion Action = "task.request_completion"
	ActionApproveTask           Action = "task.approve"
	ActionRejectTask            Action = "task.reject"
	ActionEditTask              Action = "task.edit"
	ActionAssignTask            Action = "task.assign"
	ActionDeleteTask            Action = "task.delete"

	ActionCreateMeeting Action = "meeting.create"
	ActionEditMeeting   Action = "meeting.edit"
	ActionDeleteMeeting Action = "meeting.delete"

	ActionCreateIdea Action = "idea.create"
	ActionEditIdea   Action = "idea.edit"
	ActionDeleteIdea Action = "idea.delete"
)

// CanAct decides whether the acting member may perform action on a resource
// owned by resourceOwnerID. Rules are evaluated in order, first match wins:
//
//  1. Admins may do everything.
//  2. Creating a task requires the canCreateTasks flag.
//  3. Any meeting mutation requires the canCreateMeetings flag.
//  4. Assignee transitions and owner edits require actingUserID to match the
//     resource owner. An unowned resource (owner 0) matches nobody.
//  5. Approval decisions are admin-only, so they never reach a non-admin allow.
//  6. Everything else is denied.
//
// The function is total: every (role, flags, action) combination yields a
// definite answer.
func CanAct(member workspacedomain.WorkspaceMember, action Action, resourceOwnerID, actingUserID snowflake.ID) bool {
	if member.Role == workspacedomain.RoleAdmin {
		return true
	}

	switch action {
	case ActionCreateTask:
		return member.CanCreateTasks
	case ActionCreateMeeting, ActionEditMeeting, ActionDeleteMeeting:
		return member.CanCreateMeetings
	case ActionStartTask, ActionRequestTaskCompletion,
		ActionEditTask, ActionAssignTask, ActionDeleteTask,
		ActionEditIdea, ActionDeleteIdea:
		return resourceOwnerID != 0 && actingUserID == resourceOwnerID
	case ActionCreateIdea:
		return true
	case ActionApproveTask, ActionRejectTask:
		return false
	default:
		return false
	}
}
