package core

// convert.go converts between model facets and PostgreSQL types.
//
// Every optional facet of an element maps to a nullable column: the ToPg*
// functions return pgtype values with Valid=false for an undefined facet, and
// the From* functions report whether the column held a value.

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	if strings.TrimSpace(s) == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgFloat8 converts an optional float to pgtype.Float8.
func ToPgFloat8(v float64, defined bool) pgtype.Float8 {
	if !defined {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Float64: v, Valid: true}
}

// ToPgInt4 converts an optional int to pgtype.Int4.
// Returns invalid if the value is undefined or does not fit in 32 bits.
func ToPgInt4(i int, defined bool) pgtype.Int4 {
	if !defined || i < math.MinInt32 || i > math.MaxInt32 {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(i), Valid: true}
}

// ToPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func ToPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// PgUUIDToString converts a pgtype.UUID to its string representation.
// Returns empty string if the UUID is invalid.
func PgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

// FromPgText returns the string held by t, or "".
func FromPgText(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// FromPgFloat8 returns the value held by f and whether it is set.
func FromPgFloat8(f pgtype.Float8) (float64, bool) {
	return f.Float64, f.Valid
}

// FromPgInt4 returns the value held by i and whether it is set.
func FromPgInt4(i pgtype.Int4) (int, bool) {
	return int(i.Int32), i.Valid
}

// nullable maps a sample vector to JSON-friendly pointers; NaN becomes nil.
// A nil vector stays nil.
func nullable(v []float64) []*float64 {
	if v == nil {
		return nil
	}
	out := make([]*float64, len(v))
	for i := range v {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			continue
		}
		f := v[i]
		out[i] = &f
	}
	return out
}
