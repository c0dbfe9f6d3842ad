package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/modelcsv/internal/model"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// TxBeginner starts transactions. Satisfied by *pgxpool.Pool.
type TxBeginner interface {
	DBTX
	Begin(context.Context) (pgx.Tx, error)
}

// Document is a stored model-data file: its column definition and samples.
type Document struct {
	ID         string
	Name       string
	Source     string
	CreatedAt  time.Time
	Definition *model.DataDefinition
	Data       *model.SampledDataSet
}

// Info summarizes d without its samples.
func (d *Document) Info() DocumentInfo {
	return DocumentInfo{
		ID:        d.ID,
		Name:      d.Name,
		Source:    d.Source,
		CreatedAt: d.CreatedAt,
		Inputs:    d.Definition.InputLength(),
		Outputs:   d.Definition.OutputLength(),
		Samples:   d.Data.Len(),
	}
}

// DocumentInfo is the list view of a document.
type DocumentInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Inputs    int       `json:"inputs"`
	Outputs   int       `json:"outputs"`
	Samples   int       `json:"samples"`
}

// ElementView is the JSON form of one element row in the definition grid.
type ElementView struct {
	Role   string            `json:"role"`
	Index  int               `json:"index"`
	Values map[string]string `json:"values"`
}

// DocumentView is the JSON form of a full document.
type DocumentView struct {
	DocumentInfo
	Elements []ElementView `json:"elements"`
	Records  []RecordView  `json:"records"`
}

// RecordView holds one sample. Absent components are null.
type RecordView struct {
	Inputs  []*float64 `json:"inputs"`
	Outputs []*float64 `json:"outputs"`
}

// View builds the JSON form of d.
func (d *Document) View() DocumentView {
	v := DocumentView{DocumentInfo: d.Info()}
	header := model.GridHeader()
	add := func(role string, index int, row []string) {
		values := make(map[string]string, len(row))
		for i, cell := range row {
			if i == 0 || cell == "" {
				continue
			}
			values[header[i]] = cell
		}
		v.Elements = append(v.Elements, ElementView{Role: role, Index: index, Values: values})
	}
	if d.Definition != nil {
		for i, e := range d.Definition.Inputs {
			add(RoleInput, i, model.InputGridRow(e))
		}
		for i, e := range d.Definition.Outputs {
			add(RoleOutput, i, model.OutputGridRow(e))
		}
	}
	if d.Data != nil {
		v.Records = make([]RecordView, 0, len(d.Data.Records))
		for _, rec := range d.Data.Records {
			v.Records = append(v.Records, RecordView{
				Inputs:  nullable(rec.Inputs),
				Outputs: nullable(rec.Outputs),
			})
		}
	}
	return v
}

// Element roles as they appear in URLs and JSON.
const (
	RoleInput  = "input"
	RoleOutput = "output"
)

// ParseRole converts "input"/"output" (or "in"/"out") to isInput.
func ParseRole(s string) (isInput bool, ok bool) {
	switch s {
	case RoleInput, "in":
		return true, true
	case RoleOutput, "out":
		return false, true
	}
	return false, false
}
