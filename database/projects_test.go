package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"projtrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFields(name string, assignedTo *int64) models.ProjectFields {
	return models.ProjectFields{
		Name:        name,
		Description: "Test description",
		Status:      models.StatusInProgress,
		Priority:    models.PriorityLow,
		AssignedTo:  assignedTo,
	}
}

func TestCreateProject(t *testing.T) {
	db := GetTestDB(t)
	CleanupTestDB(t, db)

	ctx := context.Background()
	adminID := CreateTestUser(t, db, "admin", true)
	userID := CreateTestUser(t, db, "testuser", false)

	project, err := db.CreateProject(ctx, testFields("Test Project", &userID), adminID)

	require.NoError(t, err)
	assert.NotZero(t, project.ID)
	assert.Equal(t, "Test Project", project.Name)
	assert.Equal(t, models.StatusInProgress, project.Status)
	assert.Equal(t, models.PriorityLow, project.Priority)
	require.NotNil(t, project.AssignedTo)
	assert.Equal(t, userID, *project.AssignedTo)
	assert.Equal(t, adminID, project.CreatedBy)
	assert.Equal(t, "admin", project.CreatedByName)
	assert.False(t, project.DateCreated.IsZero())
}

func TestCreateProject_UnknownAssignee(t *testing.T) {
	db := GetTestDB(t)
	CleanupTestDB(t, db)

	ctx := context.Background()
	adminID := CreateTestUser(t, db, "admin", true)
	missing := int64(999999)

	_, err := db.CreateProject(ctx, testFields("Test Project", &missing), adminID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProjects(t *testing.T) {
	db := GetTestDB(t)
	CleanupTestDB(t, db)

	ctx := context.Background()
	adminID := CreateTestUser(t, db, "admin", true)
	userID := CreateTestUser(t, db, "testuser", false)

	projects, err := db.ListProjects(ctx, models.ProjectFilter{})
	require.NoError(t, err)
	assert.Empty(t, projects)

	_, err = db.CreateProject(ctx, testFields("Project 1", &userID), adminID)
	require.NoError(t, err)
	_, err = db.CreateProject(ctx, testFields("Project 2", nil), adminID)
	require.NoError(t, err)
	last, err := db.CreateProject(ctx, testFields("Project 3", &adminID), adminID)
	require.NoError(t, err)

	projects, err = db.ListProjects(ctx, models.ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, projects, 3)
	assert.Equal(t, last.ID, projects[0].ID, "newest first")

	projects, err = db.ListProjects(ctx, models.ProjectFilter{AssignedTo: &userID})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Project 1", projects[0].Name)
}

func TestListProjects_Filters(t *testing.T) {
	db := GetTestDB(t)
	CleanupTestDB(t, db)

	ctx := context.Background()
	adminID := CreateTestUser(t, db, "admin", true)
	aliceID := CreateTestUser(t, db, "alice", false)

	done := testFields("Billing migration", &aliceID)
	done.Status = models.StatusDone
	done.Priority = models.PriorityHigh
	_, err := db.CreateProject(ctx, done, adminID)
	require.NoError(t, err)

	_, err = db.CreateProject(ctx, testFields("Roadmap", nil), adminID)
	require.NoError(t, err)

	tests := []struct {
		name     string
		filter   models.ProjectFilter
		expected []string
	}{
		{name: "status", filter: models.ProjectFilter{Status: models.StatusDone}, expected: []string{"Billing migration"}},
		{name: "priority", filter: models.ProjectFilter{Priority: models.PriorityLow}, expected: []string{"Roadmap"}},
		{name: "search by name", filter: models.ProjectFilter{Search: "BILLING"}, expected: []string{"Billing migration"}},
		{name: "search by assignee", filter: models.ProjectFilter{Search: "alice"}, expected: []string{"Billing migration"}},
		{name: "search single character", filter: models.ProjectFilter{Search: "g"}, expected: []string{"Billing migration"}},
		{name: "search no match", filter: models.ProjectFilter{Search: "nothing here"}, expected: []string{}},
		{name: "limit", filter: models.ProjectFilter{Limit: 1}, expected: []string{"Roadmap"}},
		{name: "offset", filter: models.ProjectFilter{Offset: 1}, expected: []string{"Billing migration"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projects, err := db.ListProjects(ctx, tt.filter)
			require.NoError(t, err)

			names := []string{}
			for _, p := range projects {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestListProjects_DateRange(t *testing.T) {
	db := GetTestDB(t)
	CleanupTestDB(t, db)

	ctx := context.Background()
	adminID := CreateTestUser(t, db, "admin", true)

	_, err := db.CreateProject(ctx, testFields("Test Project", nil), adminID)
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	projects, err := db.ListProjects(ctx, models.ProjectFilter{CreatedAfter: &future})
	require.NoError(t, err)
	assert.Empty(t, projects)

	projects, err = db.ListProjects(ctx, models.ProjectFilter{CreatedAfter: &past, CreatedBefore: &future})
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestListProjects_InvalidSearch(t *testing.T) {
	db := GetTestDB(t)
	CleanupTestDB(t, db)

	_, err := db.ListProjects(context.Background(), models.ProjectFilter{Search: strings.Repeat("x", 201)})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestGetProject(t *testing.T) {
	db := GetTestDB(t)
	CleanupTestDB(t, db)

	ctx := context.Background()
	adminID := CreateTestUser(t, db, "admin", true)

	created, err := db.CreateProject(ctx, testFields("Test Project", nil), adminID)
	require.NoError(t, err)

	retrieved, err := db.GetProject(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, retrieved.ID)
	assert.Equal(t, created.Name, retrieved.Name)
	assert.Nil(t, retrieved.AssignedTo)
	assert.Equal(t, "admin", retrieved.CreatedByName)
}

func TestGetProject_NotFound(t *testing.T) {
	db := GetTestDB(t)
	CleanupTestDB(t, db)

	_, err := db.GetProject(context.Background(), 424242)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestUpdateProject(t *testing.T) {
	db := GetTestDB(t)
	CleanupTestDB(t, db)

	ctx := context.Background()
	adminID := CreateTestUser(t, db, "admin", true)
	userID := CreateTestUser(t, db, "testuser", false)

	created, err := db.CreateProject(ctx, testFields("Test Project", nil), adminID)
	require.NoError(t, err)

	fields := models.ProjectFields{
		Name:        "Updated Project",
		Description: "Updated description",
		Status:      models.StatusAbandoned,
		Priority:    models.PriorityMid,
		AssignedTo:  &userID,
	}
	updated, err := db.UpdateProject(ctx, created.ID, fields)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Updated Project", updated.Name)
	assert.Equal(t, models.StatusAbandoned, updated.Status)
	assert.Equal(t, models.PriorityMid, updated.Priority)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, userID, *updated.AssignedTo)
	assert.Equal(t, adminID, updated.CreatedBy)
	assert.True(t, created.DateCreated.Equal(updated.DateCreated))
}

func TestUpdateProject_NotFound(t *testing.T) {
	db := GetTestDB(t)
	CleanupTestDB(t, db)

	_, err := db.UpdateProject(context.Background(), 424242, testFields("Nope", nil))
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestDeleteProject(t *testing.T) {
	db := GetTestDB(t)
	CleanupTestDB(t, db)

	ctx := context.Background()
	adminID := CreateTestUser(t, db, "admin", true)

	created, err := db.CreateProject(ctx, testFields("Test Project", nil), adminID)
	require.NoError(t, err)

	err = db.DeleteProject(ctx, created.ID)
	require.NoError(t, err)

	_, err = db.GetProject(ctx, created.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestDeleteProject_NotFound(t *testing.T) {
	db := GetTestDB(t)
	CleanupTestDB(t, db)

	err := db.DeleteProject(context.Background(), 424242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUser_ClearsAssignment(t *testing.T) {
	db := GetTestDB(t)
	CleanupTestDB(t, db)

	ctx := context.Background()
	adminID := CreateTestUser(t, db, "admin", true)
	userID := CreateTestUser(t, db, "testuser", false)

	created, err := db.CreateProject(ctx, testFields("Test Project", &userID), adminID)
	require.NoError(t, err)

	require.NoError(t, db.DeleteUser(ctx, userID))

	retrieved, err := db.GetProject(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, retrieved.AssignedTo)
}
