package database

import (
	"fmt"
	"strings"
	"time"
)

const (
	columnID           = "p.id"
	columnName         = "p.name"
	columnDescription  = "p.description"
	columnStatus       = "p.status"
	columnPriority     = "p.priority"
	columnAssignedTo   = "p.assigned_to"
	columnDateCreated  = "p.date_created"
	columnAssigneeName = "assignee.username"
)

// QueryBuilder helps build WHERE clauses safely
type QueryBuilder struct {
	conditions []string
	args       []interface{}
	argCount   int
}

func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{
		conditions: []string{},
		args:       []interface{}{},
		argCount:   1,
	}
}

func (qb *QueryBuilder) AddCondition(column string, value interface{}) {
	qb.conditions = append(qb.conditions, fmt.Sprintf("%s = $%d", column, qb.argCount))
	qb.args = append(qb.args, value)
	qb.argCount++
}

// AddTimeRange bounds column inclusively. Nil bounds are skipped.
func (qb *QueryBuilder) AddTimeRange(column string, start, end *time.Time) {
	if start != nil {
		qb.conditions = append(qb.conditions, fmt.Sprintf("%s >= $%d", column, qb.argCount))
		qb.args = append(qb.args, *start)
		qb.argCount++
	}

	if end != nil {
		qb.conditions = append(qb.conditions, fmt.Sprintf("%s <= $%d", column, qb.argCount))
		qb.args = append(qb.args, *end)
		qb.argCount++
	}
}

// AddSearch requires every pattern to match at least one of columns (ILIKE).
func (qb *QueryBuilder) AddSearch(patterns []string, columns ...string) {
	for _, pattern := range patterns {
		matches := make([]string, 0, len(columns))
		for _, column := range columns {
			matches = append(matches, fmt.Sprintf("%s ILIKE $%d", column, qb.argCount))
		}
		qb.conditions = append(qb.conditions, "("+strings.Join(matches, " OR ")+")")
		qb.args = append(qb.args, pattern)
		qb.argCount++
	}
}

func (qb *QueryBuilder) WhereClause() string {
	if len(qb.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(qb.conditions, " AND ")
}

func (qb *QueryBuilder) Args() []interface{} {
	return qb.args
}

func (qb *QueryBuilder) NextArgNum() int {
	return qb.argCount
}

// Helper functions

func validateLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func validateOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
