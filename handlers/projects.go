package handlers

import (
	"errors"
	"net/http"

	"projtrack/apperrors"
	"projtrack/database"
	"projtrack/middleware"
	"projtrack/models"
	"projtrack/policy"
	"projtrack/schema"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// authorize runs the policy for the current caller and writes the denial
// when there is one.
func authorize(c *gin.Context, p policy.Policy, op policy.Operation, target *models.Project) (*models.User, policy.Decision, bool) {
	caller := middleware.CurrentUser(c)
	decision := p.Authorize(caller, op, target)
	if !decision.Allowed {
		respondError(c, decision.Error())
		return nil, decision, false
	}
	return caller, decision, true
}

// rejectAnonymous denies op for callers without a session before the id is
// parsed or looked up, so they cannot discover which projects exist.
func rejectAnonymous(c *gin.Context, p policy.Policy, op policy.Operation) bool {
	if middleware.CurrentUser(c) != nil {
		return false
	}
	authorize(c, p, op, nil)
	return true
}

func ListProjects(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, decision, ok := authorize(c, d.Policy, policy.OpList, nil)
		if !ok {
			return
		}

		var q models.ListQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			respondError(c, bindError(err, "query"))
			return
		}

		filter, err := schema.ParseListQuery(q)
		if err != nil {
			respondError(c, err)
			return
		}
		filter = decision.Scope.Apply(filter)

		projects, err := d.Store.ListProjects(c.Request.Context(), filter)
		if err != nil {
			if errors.Is(err, database.ErrInvalidFilter) {
				respondError(c, apperrors.InvalidArgument("search", q.Search))
				return
			}
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, d.Mapper.EncodeList(projects))
	}
}

func CreateProject(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, _, ok := authorize(c, d.Policy, policy.OpCreate, nil)
		if !ok {
			return
		}

		var req models.ProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, bindError(err, "body"))
			return
		}

		fields, err := d.Mapper.Decode(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		project, err := d.Store.CreateProject(c.Request.Context(), fields, caller.ID)
		if err != nil {
			respondError(c, err)
			return
		}

		middleware.Logger(c).WithFields(logrus.Fields{
			"project_id": project.ID,
			"user":       caller.Username,
		}).Info("Project created")
		c.JSON(http.StatusCreated, d.Mapper.Encode(*project))
	}
}

func GetProject(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rejectAnonymous(c, d.Policy, policy.OpGet) {
			return
		}

		projectID, err := parseProjectID(c)
		if err != nil {
			respondError(c, err)
			return
		}

		project, err := d.Store.GetProject(c.Request.Context(), projectID)
		if err != nil {
			respondError(c, err)
			return
		}

		if _, _, ok := authorize(c, d.Policy, policy.OpGet, project); !ok {
			return
		}

		c.JSON(http.StatusOK, d.Mapper.Encode(*project))
	}
}

func UpdateProject(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rejectAnonymous(c, d.Policy, policy.OpUpdate) {
			return
		}

		projectID, err := parseProjectID(c)
		if err != nil {
			respondError(c, err)
			return
		}

		caller, _, ok := authorize(c, d.Policy, policy.OpUpdate, &models.Project{ID: projectID})
		if !ok {
			return
		}

		var req models.ProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, bindError(err, "body"))
			return
		}

		fields, err := d.Mapper.Decode(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		project, err := d.Store.UpdateProject(c.Request.Context(), projectID, fields)
		if err != nil {
			respondError(c, err)
			return
		}

		middleware.Logger(c).WithFields(logrus.Fields{
			"project_id": project.ID,
			"user":       caller.Username,
		}).Info("Project updated")
		c.JSON(http.StatusOK, d.Mapper.Encode(*project))
	}
}

func DeleteProject(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rejectAnonymous(c, d.Policy, policy.OpDelete) {
			return
		}

		projectID, err := parseProjectID(c)
		if err != nil {
			respondError(c, err)
			return
		}

		caller, _, ok := authorize(c, d.Policy, policy.OpDelete, &models.Project{ID: projectID})
		if !ok {
			return
		}

		if err := d.Store.DeleteProject(c.Request.Context(), projectID); err != nil {
			respondError(c, err)
			return
		}

		middleware.Logger(c).WithFields(logrus.Fields{
			"project_id": projectID,
			"user":       caller.Username,
		}).Info("Project deleted")
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
