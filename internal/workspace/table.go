package workspace

import (
	"context"
	"fmt"

	"github.com/mehanizm/airtable"
)

// Record is one row of a workspace table.
type Record struct {
	ID     string
	Fields map[string]any
}

// Table is a workspace table.
type Table interface {
	Get(ctx context.Context, id string) (*Record, error)
	Filter(ctx context.Context, formula string) ([]Record, error)
	Upsert(ctx context.Context, rec Record) (Record, error)
	Delete(ctx context.Context, ids ...string) error
}

// AirtableTable is a Table in an Airtable base.
type AirtableTable struct {
	table *airtable.Table
}

var _ Table = (*AirtableTable)(nil)

// NewAirtableTable opens table name of base.
func NewAirtableTable(client *airtable.Client, base, name string) *AirtableTable {
	return &AirtableTable{table: client.GetTable(base, name)}
}

// Get returns the record with id.
func (t *AirtableTable) Get(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := t.table.GetRecord(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	return &Record{ID: rec.ID, Fields: rec.Fields}, nil
}

// Filter returns every record matching an Airtable formula.
func (t *AirtableTable) Filter(ctx context.Context, formula string) ([]Record, error) {
	var out []Record
	offset := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		call := t.table.GetRecords().WithFilterFormula(formula)
		if offset != "" {
			call = call.WithOffset(offset)
		}
		recs, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list records: %w", err)
		}
		for _, r := range recs.Records {
			out = append(out, Record{ID: r.ID, Fields: r.Fields})
		}
		if recs.Offset == "" {
			return out, nil
		}
		offset = recs.Offset
	}
}

// Upsert updates the record when it has an id and creates it otherwise.
func (t *AirtableTable) Upsert(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	batch := &airtable.Records{Records: []*airtable.Record{{ID: rec.ID, Fields: rec.Fields}}}

	var (
		res *airtable.Records
		err error
	)
	if rec.ID != "" {
		res, err = t.table.UpdateRecordsPartial(batch)
	} else {
		res, err = t.table.AddRecords(batch)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to save record: %w", err)
	}
	if res == nil || len(res.Records) == 0 {
		return Record{}, fmt.Errorf("failed to save record: empty response")
	}
	saved := res.Records[0]
	return Record{ID: saved.ID, Fields: saved.Fields}, nil
}

// Delete removes records.
func (t *AirtableTable) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.table.DeleteRecords(ids); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}
