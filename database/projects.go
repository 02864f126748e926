package database

import (
	"context"
	"errors"
	"fmt"
	"projtrack/models"
	"strings"

	"github.com/jackc/pgx/v5"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
)

var (
	ErrProjectNotFound = fmt.Errorf("project %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
)

// Every read joins the creator so created_by can be rendered by name.
const projectColumns = `
	p.id, p.name, p.description, p.status, p.priority,
	p.assigned_to, p.created_by, creator.username, p.date_created`

const projectJoins = `
	JOIN users creator ON creator.id = p.created_by
	LEFT JOIN users assignee ON assignee.id = p.assigned_to`

// ListProjects returns projects matching filter, newest first.
// Returns empty slice (not nil) if nothing matches.
func (db *DB) ListProjects(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	qb := NewQueryBuilder()

	if filter.AssignedTo != nil {
		qb.AddCondition(columnAssignedTo, *filter.AssignedTo)
	}
	if filter.Status != "" {
		qb.AddCondition(columnStatus, string(filter.Status))
	}
	if filter.Priority != "" {
		qb.AddCondition(columnPriority, string(filter.Priority))
	}
	qb.AddTimeRange(columnDateCreated, filter.CreatedAfter, filter.CreatedBefore)

	if filter.Search != "" {
		patterns, err := NewSearchQueryParser().Parse(filter.Search)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		qb.AddSearch(patterns, columnName, columnDescription, columnAssigneeName)
	}

	// SAFETY: All user input is parameterized via $N placeholders.
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM projects p %s %s ORDER BY %s DESC, %s DESC",
		projectColumns, projectJoins, qb.WhereClause(), columnDateCreated, columnID)

	args := qb.Args()
	next := qb.NextArgNum()
	if filter.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT $%d", next)
		args = append(args, validateLimit(filter.Limit, defaultLimit, maxLimit))
		next++
	}
	if offset := validateOffset(filter.Offset); offset > 0 {
		fmt.Fprintf(&sb, " OFFSET $%d", next)
		args = append(args, offset)
	}

	rows, err := db.Pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

func (db *DB) GetProject(ctx context.Context, projectID int64) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects p ` + projectJoins + ` WHERE p.id = $1`

	project, err := scanProject(db.Pool.QueryRow(ctx, query, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// CreateProject inserts a project owned by createdBy. The store assigns id and date_created.
func (db *DB) CreateProject(ctx context.Context, fields models.ProjectFields, createdBy int64) (*models.Project, error) {
	query := `
		WITH p AS (
			INSERT INTO projects (name, description, status, priority, assigned_to, created_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		)
		SELECT ` + projectColumns + ` FROM p ` + projectJoins

	project, err := scanProject(db.Pool.QueryRow(ctx, query,
		fields.Name, fields.Description, string(fields.Status), string(fields.Priority),
		fields.AssignedTo, createdBy))
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	db.log.WithField("project_id", project.ID).Infof("Created project: %s", project.Name)
	return project, nil
}

// UpdateProject replaces every mutable field of a project.
// id, created_by and date_created are never touched.
func (db *DB) UpdateProject(ctx context.Context, projectID int64, fields models.ProjectFields) (*models.Project, error) {
	query := `
		WITH p AS (
			UPDATE projects
			SET name = $2, description = $3, status = $4, priority = $5, assigned_to = $6
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + projectColumns + ` FROM p ` + projectJoins

	project, err := scanProject(db.Pool.QueryRow(ctx, query, projectID,
		fields.Name, fields.Description, string(fields.Status), string(fields.Priority),
		fields.AssignedTo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	db.log.WithField("project_id", project.ID).Info("Updated project")
	return project, nil
}

func (db *DB) DeleteProject(ctx context.Context, projectID int64) error {
	query := `DELETE FROM projects WHERE id = $1`

	result, err := db.Pool.Exec(ctx, query, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrProjectNotFound
	}

	db.log.WithField("project_id", projectID).Info("Deleted project")
	return nil
}

// Helper functions

func scanProject(row rowScanner) (*models.Project, error) {
	var project models.Project
	var status, priority string
	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&status,
		&priority,
		&project.AssignedTo,
		&project.CreatedBy,
		&project.CreatedByName,
		&project.DateCreated,
	)
	if err != nil {
		return nil, err
	}
	project.Status = models.Status(status)
	project.Priority = models.Priority(priority)
	return &project, nil
}

func scanProjects(rows rowsScanner) ([]models.Project, error) {
	projects := []models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}
