package models

import (
	"time"
)

// Status is the lifecycle state of a project.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusAbandoned  Status = "abandoned"
	StatusCanceled   Status = "canceled"
)

// Statuses lists every accepted status in display order.
var Statuses = []Status{StatusInProgress, StatusDone, StatusAbandoned, StatusCanceled}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Priority is how urgently a project should be handled.
type Priority string

const (
	PriorityLow  Priority = "low"
	PriorityMid  Priority = "mid"
	PriorityHigh Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMid, PriorityHigh}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

const (
	DefaultStatus   = StatusInProgress
	DefaultPriority = PriorityLow
)

// Project is the persisted representation of a tracked project.
// CreatedByName is filled from the creator's user row on reads and is never written.
type Project struct {
	ID            int64
	Name          string
	Description   string
	Status        Status
	Priority      Priority
	AssignedTo    *int64
	CreatedBy     int64
	CreatedByName string
	DateCreated   time.Time
}

// ProjectFields holds the caller-replaceable part of a project after validation.
type ProjectFields struct {
	Name        string
	Description string
	Status      Status
	Priority    Priority
	AssignedTo  *int64
}

// ProjectRequest is the payload for creating or replacing a project.
// Unknown keys, including created_by, are dropped by the JSON decoder.
type ProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	AssignedTo  *int64 `json:"assigned_to"`
}

// ProjectResponse is the wire shape of a project.
// CreatedBy is the creator's username, for display only.
type ProjectResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	DateCreated time.Time `json:"date_created"`
	AssignedTo  *int64    `json:"assigned_to"`
	CreatedBy   string    `json:"created_by"`
}

// ProjectFilter narrows a project listing. Zero values mean no restriction;
// Limit <= 0 returns every matching row.
type ProjectFilter struct {
	AssignedTo    *int64
	Status        Status
	Priority      Priority
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Search        string
	Limit         int
	Offset        int
}

// ListQuery is the query string accepted by the project listing.
type ListQuery struct {
	Status        string `form:"status"`
	Priority      string `form:"priority"`
	AssignedTo    string `form:"assigned_to"`
	CreatedAfter  string `form:"created_after"`
	CreatedBefore string `form:"created_before"`
	Search        string `form:"search"`
	Limit         string `form:"limit"`
	Offset        string `form:"offset"`
}
