package permission

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"

	workspacedomain "github.com/syncspace/syncspace/internal/workspace/domain"
)

const (
	actorID snowflake.ID = 100
	otherID snowflake.ID = 200
)

func member(role string, canTasks, canMeetings bool) workspacedomain.WorkspaceMember {
	return workspacedomain.WorkspaceMember{
		UserID:            actorID,
		Role:              role,
		CanCreateTasks:    canTasks,
		CanCreateMeetings: canMeetings,
	}
}

func TestCanAct_AdminAllowsEverything(t *testing.T) {
	admin := member(workspacedomain.RoleAdmin, false, false)

	actions := []Action{
		ActionCreateTask, ActionStartTask, ActionRequestTaskCompletion,
		ActionApproveTask, ActionRejectTask, ActionEditTask, ActionAssignTask,
		ActionDeleteTask, ActionCreateMeeting, ActionEditMeeting,
		ActionDeleteMeeting, ActionCreateIdea, ActionEditIdea, ActionDeleteIdea,
	}
	for _, action := range actions {
		assert.True(t, CanAct(admin, action, otherID, actorID), "admin denied %s", action)
	}
}

func TestCanAct_MemberMatrix(t *testing.T) {
	tests := []struct {
		name        string
		member      workspacedomain.WorkspaceMember
		action      Action
		ownerID     snowflake.ID
		actingID    snowflake.ID
		wantAllowed bool
	}{
		{"create task with flag", member(workspacedomain.RoleMember, true, false), ActionCreateTask, 0, actorID, true},
		{"create task without flag", member(workspacedomain.RoleMember, false, false), ActionCreateTask, 0, actorID, false},
		{"create meeting with flag", member(workspacedomain.RoleMember, false, true), ActionCreateMeeting, 0, actorID, true},
		{"create meeting without flag", member(workspacedomain.RoleMember, true, false), ActionCreateMeeting, 0, actorID, false},
		{"edit meeting with flag", member(workspacedomain.RoleMember, false, true), ActionEditMeeting, otherID, actorID, true},
		{"edit meeting without flag", member(workspacedomain.RoleMember, false, false), ActionEditMeeting, actorID, actorID, false},
		{"delete meeting with flag", member(workspacedomain.RoleMember, false, true), ActionDeleteMeeting, otherID, actorID, true},
		{"start own task", member(workspacedomain.RoleMember, false, false), ActionStartTask, actorID, actorID, true},
		{"start someone else's task", member(workspacedomain.RoleMember, true, true), ActionStartTask, otherID, actorID, false},
		{"start unassigned task", member(workspacedomain.RoleMember, true, true), ActionStartTask, 0, actorID, false},
		{"request completion as assignee", member(workspacedomain.RoleMember, false, false), ActionRequestTaskCompletion, actorID, actorID, true},
		{"request completion as stranger", member(workspacedomain.RoleMember, true, true), ActionRequestTaskCompletion, otherID, actorID, false},
		{"approve as member", member(workspacedomain.RoleMember, true, true), ActionApproveTask, actorID, actorID, false},
		{"reject as member", member(workspacedomain.RoleMember, true, true), ActionRejectTask, actorID, actorID, false},
		{"edit own task", member(workspacedomain.RoleMember, false, false), ActionEditTask, actorID, actorID, true},
		{"edit someone else's task", member(workspacedomain.RoleMember, true, true), ActionEditTask, otherID, actorID, false},
		{"reassign own task", member(workspacedomain.RoleMember, false, false), ActionAssignTask, actorID, actorID, true},
		{"delete own task", member(workspacedomain.RoleMember, false, false), ActionDeleteTask, actorID, actorID, true},
		{"delete someone else's task", member(workspacedomain.RoleMember, true, true), ActionDeleteTask, otherID, actorID, false},
		{"create idea", member(workspacedomain.RoleMember, false, false), ActionCreateIdea, 0, actorID, true},
		{"edit own idea", member(workspacedomain.RoleMember, false, false), ActionEditIdea, actorID, actorID, true},
		{"edit someone else's idea", member(workspacedomain.RoleMember, true, true), ActionEditIdea, otherID, actorID, false},
		{"unknown action", member(workspacedomain.RoleMember, true, true), Action("task.unknown"), actorID, actorID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanAct(tt.member, tt.action, tt.ownerID, tt.actingID)
			assert.Equal(t, tt.wantAllowed, got)
		})
	}
}

func TestCanAct_Deterministic(t *testing.T) {
	m := member(workspacedomain.RoleMember, true, false)
	first := CanAct(m, ActionCreateTask, 0, actorID)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, CanAct(m, ActionCreateTask, 0, actorID))
	}
}
