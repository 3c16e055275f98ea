package accesskit

import (
	"strings"

	"github.com/uptrace/bun"
)

// RecordAccess holds the ownership fields of a business record that
// visibility depends on. Empty IDs mean "not set".
type RecordAccess struct {
	CreatedBy  string
	AssignedTo string
	OwnerID    string
	IsPrivate  bool
}

// AccessibleRecord is any business record that can be filtered by hierarchy.
type AccessibleRecord interface {
	AccessFields() RecordAccess
}

// CanView reports whether actorID may see a record:
//   - the actor created it, or
//   - the actor is its assignee or owner, or
//   - its creator, assignee or owner is in accessible and it is not private.
//
// Private records are only visible to their creator, assignee or owner.
func CanView(actorID string, rec RecordAccess, accessible UserIDSet) bool {
	if actorID != "" {
		if rec.CreatedBy == actorID || rec.AssignedTo == actorID || rec.OwnerID == actorID {
			return true
		}
	}
	if rec.IsPrivate {
		return false
	}
	return accessible.Has(rec.CreatedBy) || accessible.Has(rec.AssignedTo) || accessible.Has(rec.OwnerID)
}

// FilterByHierarchicalAccess returns the records actorID may see, keeping
// their order. accessible is normally the result of GetAccessibleUserIDs.
//
// Example:
//
//	ids, _ := service.GetAccessibleUserIDs(ctx, actorID)
//	tasks = accesskit.FilterByHierarchicalAccess(actorID, tasks, ids)
func FilterByHierarchicalAccess[T AccessibleRecord](actorID string, records []T, accessible UserIDSet) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if CanView(actorID, rec.AccessFields(), accessible) {
			out = append(out, rec)
		}
	}
	return out
}

// AccessFilter pushes the CanView predicate into a bun query for list
// endpoints backed by SQL. Empty column names are skipped.
type AccessFilter struct {
	CreatedByColumn  string
	AssignedToColumn string
	OwnerColumn      string
	PrivateColumn    string
}

// DefaultAccessFilter matches the common created_by/assigned_to/is_private layout.
func DefaultAccessFilter() AccessFilter {
	return AccessFilter{
		CreatedByColumn:  "created_by",
		AssignedToColumn: "assigned_to",
		PrivateColumn:    "is_private",
	}
}

func (f AccessFilter) ownerColumns() []string {
	cols := make([]string, 0, 3)
	for _, c := range []string{f.CreatedByColumn, f.AssignedToColumn, f.OwnerColumn} {
		if c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// Apply adds the visibility predicate to q.
//
// Example:
//
//	q := db.NewSelect().Model(&tasks)
//	q = accesskit.DefaultAccessFilter().Apply(q, actorID, ids)
func (f AccessFilter) Apply(q *bun.SelectQuery, actorID string, accessible UserIDSet) *bun.SelectQuery {
	cols := f.ownerColumns()
	ids := accessible.Slice()

	var (
		parts []string
		args  []any
	)
	if actorID != "" {
		for _, c := range cols {
			parts = append(parts, "? = ?")
			args = append(args, bun.Ident(c), actorID)
		}
	}
	if len(ids) > 0 && len(cols) > 0 {
		in := make([]string, 0, len(cols))
		for _, c := range cols {
			in = append(in, "? IN (?)")
			args = append(args, bun.Ident(c), bun.In(ids))
		}
		clause := "(" + strings.Join(in, " OR ") + ")"
		if f.PrivateColumn != "" {
			clause += " AND ? IS NOT TRUE"
			args = append(args, bun.Ident(f.PrivateColumn))
		}
		parts = append(parts, "("+clause+")")
	}

	if len(parts) == 0 {
		return q.Where("1 = 0")
	}
	return q.Where("("+strings.Join(parts, " OR ")+")", args...)
}
