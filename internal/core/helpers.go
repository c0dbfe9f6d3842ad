package core

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder assembles a parameterized WHERE clause. Conditions whose value
// is empty are skipped, so optional filters can be added unconditionally.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

// NewWhereBuilder returns an empty builder whose first placeholder is $1.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends "column = $n" unless value is empty.
func (wb *WhereBuilder) Add(column string, value any) {
	if isEmptyArg(value) {
		return
	}
	wb.addCondition(column+" = $%d", value)
}

// AddDocumentID filters by document. Invalid IDs match nothing.
func (wb *WhereBuilder) AddDocumentID(id string) {
	if id == "" {
		return
	}
	wb.addCondition("document_id = $%d", ToPgUUID(id))
}

// AddSince appends "column >= $n" unless since is zero.
func (wb *WhereBuilder) AddSince(column string, since time.Time) {
	if since.IsZero() {
		return
	}
	wb.addCondition(column+" >= $%d", since)
}

// AddTimestampRange appends an inclusive range on column.
func (wb *WhereBuilder) AddTimestampRange(column string, start, end any) {
	wb.addCondition(column+" >= $%d", start)
	wb.addCondition(column+" <= $%d", end)
}

// NextArgIndex returns the placeholder number the next argument will get,
// for clauses appended after Build such as LIMIT and OFFSET.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// Build returns the clause, with a leading " WHERE ", and its arguments.
// With no conditions it returns "" and nil.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

func (wb *WhereBuilder) addCondition(format string, value any) {
	wb.conditions = append(wb.conditions, fmt.Sprintf(format, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

func isEmptyArg(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case AuditAction:
		return x == ""
	}
	return false
}
