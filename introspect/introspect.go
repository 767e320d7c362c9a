package introspect

import (
	"context"
	"database/sql"
	"fmt"
)

type ExistingTable struct {
	TableName   string
	Columns     []ExistingColumn
	ForeignKeys []ExistingForeignKey
}

type ExistingColumn struct {
	ColumnName    string
	DataType      string
	IsNullable    bool
	ColumnDefault *string
}

type ExistingForeignKey struct {
	ConstraintName   string
	ColumnName       string
	ReferencesTable  string
	ReferencesColumn string
	OnDelete         string
	OnUpdate         string
}

// Dialect names the database family a connection speaks. Each one reads
// its catalog differently.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Column returns the named column of t.
func (t ExistingTable) Column(name string) (ExistingColumn, bool) {
	for _, c := range t.Columns {
		if c.ColumnName == name {
			return c, true
		}
	}
	return ExistingColumn{}, false
}

// HasForeignKey reports whether t has a foreign key on column.
func (t ExistingTable) HasForeignKey(column string) bool {
	for _, fk := range t.ForeignKeys {
		if fk.ColumnName == column {
			return true
		}
	}
	return false
}

type catalog interface {
	tableNames(ctx context.Context, q Querier) ([]string, error)
	columns(ctx context.Context, q Querier, table string) ([]ExistingColumn, error)
	foreignKeys(ctx context.Context, q Querier, table string) ([]ExistingForeignKey, error)
}

func catalogFor(d Dialect) (catalog, error) {
	switch d {
	case Postgres, "":
		return postgresCatalog, nil
	case MySQL:
		return mysqlCatalog, nil
	case SQLite:
		return sqliteCatalog{}, nil
	}
	return nil, fmt.Errorf("introspect: unsupported dialect %q", d)
}

// Tables reads every base table of the connected database with its columns
// and foreign keys. For Postgres that is the public schema, for MySQL the
// current database.
func Tables(ctx context.Context, q Querier, d Dialect) ([]ExistingTable, error) {
	c, err := catalogFor(d)
	if err != nil {
		return nil, err
	}

	tableNames, err := c.tableNames(ctx, q)
	if err != nil {
		return nil, err
	}

	var tables []ExistingTable
	for _, tableName := range tableNames {
		columns, err := c.columns(ctx, q, tableName)
		if err != nil {
			return nil, fmt.Errorf("getting columns for table %s: %w", tableName, err)
		}

		foreignKeys, err := c.foreignKeys(ctx, q, tableName)
		if err != nil {
			return nil, fmt.Errorf("getting foreign keys for table %s: %w", tableName, err)
		}

		tables = append(tables, ExistingTable{
			TableName:   tableName,
			Columns:     columns,
			ForeignKeys: foreignKeys,
		})
	}

	return tables, nil
}

// TableNames lists the base tables without reading their columns.
func TableNames(ctx context.Context, q Querier, d Dialect) ([]string, error) {
	c, err := catalogFor(d)
	if err != nil {
		return nil, err
	}
	return c.tableNames(ctx, q)
}

// informationSchema reads the SQL-standard catalog views. Postgres and
// MySQL differ only in the queries.
type informationSchema struct {
	tablesQuery      string
	columnsQuery     string
	foreignKeysQuery string
}

func (c informationSchema) tableNames(ctx context.Context, q Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, c.tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var tableNames []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tableNames = append(tableNames, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table rows: %w", err)
	}
	return tableNames, nil
}

func (c informationSchema) columns(ctx context.Context, q Querier, tableName string) ([]ExistingColumn, error) {
	rows, err := q.QueryContext(ctx, c.columnsQuery, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var columns []ExistingColumn
	for rows.Next() {
		var col ExistingColumn
		if err := rows.Scan(
			&col.ColumnName,
			&col.DataType,
			&col.IsNullable,
			&col.ColumnDefault,
		); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating column rows: %w", err)
	}
	return columns, nil
}

func (c informationSchema) foreignKeys(ctx context.Context, q Querier, tableName string) ([]ExistingForeignKey, error) {
	rows, err := q.QueryContext(ctx, c.foreignKeysQuery, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %w", err)
	}
	defer rows.Close()

	var foreignKeys []ExistingForeignKey
	for rows.Next() {
		var fk ExistingForeignKey
		if err := rows.Scan(
			&fk.ConstraintName,
			&fk.ColumnName,
			&fk.ReferencesTable,
			&fk.ReferencesColumn,
			&fk.OnDelete,
			&fk.OnUpdate,
		); err != nil {
			return nil, fmt.Errorf("scanning foreign key: %w", err)
		}
		foreignKeys = append(foreignKeys, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating foreign key rows: %w", err)
	}
	return foreignKeys, nil
}
