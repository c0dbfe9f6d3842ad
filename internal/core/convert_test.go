package core

import (
	"math"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

// ----------------------------------------------------------------------------
// ToPg* Tests
// ----------------------------------------------------------------------------

func TestToPgText(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
	}{
		{name: "plain", input: "alpha", wantValid: true},
		{name: "keeps inner spaces", input: "a b", wantValid: true},
		{name: "empty", input: "", wantValid: false},
		{name: "whitespace only", input: "   ", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgText(tt.input)
			if got.Valid != tt.wantValid {
				t.Errorf("ToPgText(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if got.Valid && got.String != tt.input {
				t.Errorf("ToPgText(%q).String = %q", tt.input, got.String)
			}
		})
	}
}

func TestToPgFloat8(t *testing.T) {
	if got := ToPgFloat8(2.5, true); !got.Valid || got.Float64 != 2.5 {
		t.Errorf("ToPgFloat8(2.5, true) = %+v", got)
	}
	if got := ToPgFloat8(2.5, false); got.Valid {
		t.Errorf("ToPgFloat8(2.5, false) should be invalid")
	}
	if got := ToPgFloat8(0, true); !got.Valid {
		t.Errorf("a defined zero must stay valid")
	}
}

func TestToPgInt4(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		defined   bool
		wantValid bool
	}{
		{name: "defined", value: 7, defined: true, wantValid: true},
		{name: "defined zero", value: 0, defined: true, wantValid: true},
		{name: "negative", value: -3, defined: true, wantValid: true},
		{name: "undefined", value: 7, defined: false, wantValid: false},
		{name: "overflow", value: math.MaxInt32 + 1, defined: true, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgInt4(tt.value, tt.defined)
			if got.Valid != tt.wantValid {
				t.Errorf("ToPgInt4(%d, %v).Valid = %v, want %v", tt.value, tt.defined, got.Valid, tt.wantValid)
			}
			if got.Valid && int(got.Int32) != tt.value {
				t.Errorf("ToPgInt4(%d).Int32 = %d", tt.value, got.Int32)
			}
		})
	}
}

func TestToPgUUID(t *testing.T) {
	const id = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"

	u := ToPgUUID(id)
	if !u.Valid {
		t.Fatalf("ToPgUUID(%q) invalid", id)
	}
	if got := PgUUIDToString(u); got != id {
		t.Errorf("PgUUIDToString = %q, want %q", got, id)
	}
	if ToPgUUID("").Valid {
		t.Error("empty string should be invalid")
	}
	if ToPgUUID("not-a-uuid").Valid {
		t.Error("malformed UUID should be invalid")
	}
	if got := PgUUIDToString(pgtype.UUID{}); got != "" {
		t.Errorf("PgUUIDToString(invalid) = %q, want empty", got)
	}
}

// ----------------------------------------------------------------------------
// From* Tests
// ----------------------------------------------------------------------------

func TestFromPg(t *testing.T) {
	if got := FromPgText(pgtype.Text{String: "x", Valid: true}); got != "x" {
		t.Errorf("FromPgText = %q", got)
	}
	if got := FromPgText(pgtype.Text{String: "x"}); got != "" {
		t.Errorf("FromPgText(invalid) = %q, want empty", got)
	}
	if v, ok := FromPgFloat8(ToPgFloat8(1.5, true)); !ok || v != 1.5 {
		t.Errorf("FromPgFloat8 = %v, %v", v, ok)
	}
	if _, ok := FromPgFloat8(pgtype.Float8{}); ok {
		t.Error("FromPgFloat8(invalid) reported a value")
	}
	if v, ok := FromPgInt4(ToPgInt4(4, true)); !ok || v != 4 {
		t.Errorf("FromPgInt4 = %v, %v", v, ok)
	}
}

func TestNullable(t *testing.T) {
	if got := nullable(nil); got != nil {
		t.Errorf("nullable(nil) = %v, want nil", got)
	}

	got := nullable([]float64{1, math.NaN(), math.Inf(1)})
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0] == nil || *got[0] != 1 {
		t.Errorf("got[0] = %v, want 1", got[0])
	}
	if got[1] != nil || got[2] != nil {
		t.Errorf("NaN and Inf should be nil, got %v %v", got[1], got[2])
	}
}
