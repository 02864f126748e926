package policy

import (
	"testing"

	"projtrack/apperrors"
	"projtrack/models"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = &models.User{ID: 1, Username: "admin", IsStaff: true, IsActive: true}
	alice = &models.User{ID: 2, Username: "alice", IsActive: true}
	bob   = &models.User{ID: 3, Username: "bob", IsActive: true}
)

func assignedTo(id int64) *models.Project {
	return &models.Project{ID: 10, Name: "Test Project", AssignedTo: &id, CreatedBy: admin.ID}
}

func TestAuthorize(t *testing.T) {
	unassigned := &models.Project{ID: 11, Name: "Unassigned", CreatedBy: admin.ID}

	tests := []struct {
		name     string
		caller   *models.User
		op       Operation
		target   *models.Project
		wantKind apperrors.Kind
		allowed  bool
	}{
		{name: "anonymous list", caller: nil, op: OpList, wantKind: apperrors.KindUnauthorized},
		{name: "anonymous get", caller: nil, op: OpGet, target: assignedTo(alice.ID), wantKind: apperrors.KindUnauthorized},
		{name: "anonymous create", caller: nil, op: OpCreate, wantKind: apperrors.KindUnauthorized},
		{name: "user list", caller: alice, op: OpList, allowed: true},
		{name: "staff list", caller: admin, op: OpList, allowed: true},
		{name: "user create", caller: alice, op: OpCreate, wantKind: apperrors.KindForbidden},
		{name: "staff create", caller: admin, op: OpCreate, allowed: true},
		{name: "assignee get", caller: alice, op: OpGet, target: assignedTo(alice.ID), allowed: true},
		{name: "other user get", caller: bob, op: OpGet, target: assignedTo(alice.ID), wantKind: apperrors.KindForbidden},
		{name: "user get unassigned", caller: alice, op: OpGet, target: unassigned, wantKind: apperrors.KindForbidden},
		{name: "staff get any", caller: admin, op: OpGet, target: assignedTo(alice.ID), allowed: true},
		{name: "assignee update", caller: alice, op: OpUpdate, target: assignedTo(alice.ID), wantKind: apperrors.KindForbidden},
		{name: "staff update", caller: admin, op: OpUpdate, target: assignedTo(alice.ID), allowed: true},
		{name: "assignee delete", caller: alice, op: OpDelete, target: assignedTo(alice.ID), wantKind: apperrors.KindForbidden},
		{name: "staff delete", caller: admin, op: OpDelete, allowed: true},
		{name: "unspecified op", caller: admin, op: OpUnspecified, wantKind: apperrors.KindForbidden},
	}

	logger, _ := test.NewNullLogger()
	p := NewRoleBased(logger)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Authorize(tt.caller, tt.op, tt.target)

			assert.Equal(t, tt.allowed, d.Allowed)
			if tt.allowed {
				assert.NoError(t, d.Error())
				return
			}
			require.Error(t, d.Error())
			assert.Equal(t, tt.wantKind, apperrors.KindOf(d.Error()))
			assert.NotEmpty(t, d.Reason)
		})
	}
}

func TestListScope(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := NewRoleBased(logger)
	other := int64(99)

	staff := p.Authorize(admin, OpList, nil)
	require.True(t, staff.Allowed)
	filter := staff.Scope.Apply(models.ProjectFilter{AssignedTo: &other})
	require.NotNil(t, filter.AssignedTo)
	assert.Equal(t, other, *filter.AssignedTo, "staff may filter by any assignee")

	unfiltered := staff.Scope.Apply(models.ProjectFilter{})
	assert.Nil(t, unfiltered.AssignedTo)

	user := p.Authorize(alice, OpList, nil)
	require.True(t, user.Allowed)
	filter = user.Scope.Apply(models.ProjectFilter{AssignedTo: &other, Status: models.StatusDone})
	require.NotNil(t, filter.AssignedTo)
	assert.Equal(t, alice.ID, *filter.AssignedTo, "non-staff scope cannot be widened")
	assert.Equal(t, models.StatusDone, filter.Status)
}

func TestDenialsAreLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := NewRoleBased(logger)

	p.Authorize(nil, OpList, nil)
	p.Authorize(bob, OpGet, assignedTo(alice.ID))
	p.Authorize(admin, OpGet, assignedTo(alice.ID))

	entries := hook.AllEntries()
	require.Len(t, entries, 2)

	assert.Equal(t, logrus.WarnLevel, entries[0].Level)
	assert.Equal(t, "Unauthorized access attempt", entries[0].Message)
	assert.Equal(t, "list", entries[0].Data["operation"])

	assert.Equal(t, "Forbidden access attempt", entries[1].Message)
	assert.Equal(t, "bob", entries[1].Data["user"])
	assert.Equal(t, int64(10), entries[1].Data["project_id"])
}
