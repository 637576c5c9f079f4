package db

import (
	"context"
	"strings"

	"github.com/spf13/cast"

	"dbkit/src/core/domain"
)

// DescribeColumns returns the columns of table in definition order. The
// result is cached for the lifetime of the DB, including an empty result
// for a table that does not exist; a failed introspection is not cached.
func (d *DB) DescribeColumns(ctx context.Context, table string) ([]domain.Column, error) {
	if cols, ok := d.schema[table]; ok {
		return append([]domain.Column(nil), cols...), nil
	}

	stmt, err := d.builder.Describe(table)
	if err != nil {
		return nil, d.fail(err)
	}
	recs, err := d.records(ctx, domain.NamespaceDefault, stmt, 0)
	if err != nil {
		return nil, err
	}

	cols := make([]domain.Column, 0, len(recs))
	for _, rec := range recs {
		cols = append(cols, columnFromRecord(rec))
	}
	d.schema[table] = cols
	return append([]domain.Column(nil), cols...), nil
}

// Describe returns the column names of table in definition order.
func (d *DB) Describe(ctx context.Context, table string) ([]string, error) {
	cols, err := d.DescribeColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names, nil
}

// ColumnExists reports whether table has column name.
func (d *DB) ColumnExists(ctx context.Context, table, name string) (bool, error) {
	names, err := d.Describe(ctx, table)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// columnFromRecord maps one introspection row. Every dialect aliases its
// result to the MySQL SHOW FULL COLUMNS names.
func columnFromRecord(rec domain.Record) domain.Column {
	col := domain.Column{
		Name:     cast.ToString(rec["Field"]),
		Type:     strings.ToUpper(cast.ToString(rec["Type"])),
		Nullable: !strings.EqualFold(cast.ToString(rec["Null"]), "NO"),
		Key:      cast.ToString(rec["Key"]),
		Extra:    cast.ToString(rec["Extra"]),
		Comment:  cast.ToString(rec["Comment"]),
	}
	if v := rec["Default"]; v != nil {
		s := cast.ToString(v)
		col.Default = &s
	}
	return col
}
