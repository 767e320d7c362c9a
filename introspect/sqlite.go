package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const sqliteTablesQuery = `
SELECT name
FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
ORDER BY name;
`

// sqliteCatalog reads sqlite_master and the table pragmas. SQLite keeps no
// constraint names, so foreign keys are named the way Laravel names them.
type sqliteCatalog struct{}

func (sqliteCatalog) tableNames(ctx context.Context, q Querier) ([]string, error) {
	return informationSchema{tablesQuery: sqliteTablesQuery}.tableNames(ctx, q)
}

func (sqliteCatalog) columns(ctx context.Context, q Querier, tableName string) ([]ExistingColumn, error) {
	rows, err := q.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(tableName)+")")
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var columns []ExistingColumn
	for rows.Next() {
		var (
			cid, notNull, pk int
			col              ExistingColumn
			def              sql.NullString
		)
		if err := rows.Scan(&cid, &col.ColumnName, &col.DataType, &notNull, &def, &pk); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		col.IsNullable = notNull == 0 && pk == 0
		if def.Valid {
			col.ColumnDefault = &def.String
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating column rows: %w", err)
	}
	return columns, nil
}

func (sqliteCatalog) foreignKeys(ctx context.Context, q Querier, tableName string) ([]ExistingForeignKey, error) {
	rows, err := q.QueryContext(ctx, "PRAGMA foreign_key_list("+quoteIdent(tableName)+")")
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %w", err)
	}
	defer rows.Close()

	var foreignKeys []ExistingForeignKey
	for rows.Next() {
		var (
			id, seq                   int
			target, from              string
			to                        sql.NullString
			onUpdate, onDelete, match string
		)
		if err := rows.Scan(&id, &seq, &target, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("scanning foreign key: %w", err)
		}
		fk := ExistingForeignKey{
			ConstraintName:   tableName + "_" + from + "_foreign",
			ColumnName:       from,
			ReferencesTable:  target,
			ReferencesColumn: to.String,
			OnDelete:         onDelete,
			OnUpdate:         onUpdate,
		}
		// a reference without a column points at the target's primary key
		if !to.Valid || to.String == "" {
			fk.ReferencesColumn = "id"
		}
		foreignKeys = append(foreignKeys, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating foreign key rows: %w", err)
	}
	return foreignKeys, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
