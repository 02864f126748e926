// Package policy decides who may list, read, create, update and delete projects.
//
// Reads are row-level: staff see every project, everyone else only the
// projects assigned to them. Writes are role-level: only staff may create,
// update or delete.
package policy

import (
	"projtrack/apperrors"
	"projtrack/models"

	"github.com/sirupsen/logrus"
)

// Operation is a project operation subject to authorization.
type Operation int

const (
	OpUnspecified Operation = iota
	OpList
	OpCreate
	OpGet
	OpUpdate
	OpDelete
)

func (op Operation) String() string {
	switch op {
	case OpList:
		return "list"
	case OpCreate:
		return "create"
	case OpGet:
		return "get"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unspecified"
	}
}

// Scope is the set of projects a caller may list.
type Scope struct {
	All        bool
	AssignedTo int64
}

// Apply restricts filter to the scope. Staff filters pass through untouched.
func (s Scope) Apply(filter models.ProjectFilter) models.ProjectFilter {
	if !s.All {
		id := s.AssignedTo
		filter.AssignedTo = &id
	}
	return filter
}

// Decision is the outcome of an authorization check.
// Scope is only meaningful for an allowed OpList.
type Decision struct {
	Allowed bool
	Scope   Scope
	Err     *apperrors.Error
	Reason  string
}

// Error returns nil when allowed and the denial otherwise.
func (d Decision) Error() error {
	if d.Allowed {
		return nil
	}
	return d.Err
}

// Policy authorizes a caller's operation. caller is nil for anonymous
// requests; target is the project for item-level operations.
type Policy interface {
	Authorize(caller *models.User, op Operation, target *models.Project) Decision
}

// RoleBased is the staff/assignee policy. Every denial is logged.
type RoleBased struct {
	log logrus.FieldLogger
}

func NewRoleBased(logger logrus.FieldLogger) *RoleBased {
	return &RoleBased{log: logger}
}

func (p *RoleBased) Authorize(caller *models.User, op Operation, target *models.Project) Decision {
	if caller == nil {
		return p.deny(caller, op, target, apperrors.Unauthorized(), "not authenticated")
	}

	switch op {
	case OpList:
		if caller.IsStaff {
			return Decision{Allowed: true, Scope: Scope{All: true}}
		}
		return Decision{Allowed: true, Scope: Scope{AssignedTo: caller.ID}}

	case OpGet:
		if target == nil {
			return p.deny(caller, op, target, apperrors.Forbidden(), "no target project")
		}
		if caller.IsStaff || isAssignee(caller, target) {
			return Decision{Allowed: true}
		}
		return p.deny(caller, op, target, apperrors.Forbidden(), "project not assigned to caller")

	case OpCreate, OpUpdate, OpDelete:
		if caller.IsStaff {
			return Decision{Allowed: true}
		}
		return p.deny(caller, op, target, apperrors.Forbidden(), "staff only")

	default:
		return p.deny(caller, op, target, apperrors.Forbidden(), "unknown operation")
	}
}

func isAssignee(caller *models.User, target *models.Project) bool {
	return target.AssignedTo != nil && *target.AssignedTo == caller.ID
}

func (p *RoleBased) deny(caller *models.User, op Operation, target *models.Project, err *apperrors.Error, reason string) Decision {
	fields := logrus.Fields{
		"operation": op.String(),
		"reason":    reason,
	}
	if caller != nil {
		fields["user"] = caller.Username
		fields["user_id"] = caller.ID
	}
	if target != nil {
		fields["project_id"] = target.ID
	}

	if err.Kind == apperrors.KindUnauthorized {
		p.log.WithFields(fields).Warn("Unauthorized access attempt")
	} else {
		p.log.WithFields(fields).Warn("Forbidden access attempt")
	}

	return Decision{Err: err, Reason: reason}
}
