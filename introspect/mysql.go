package introspect

var mysqlCatalog = informationSchema{
	tablesQuery:      mysqlTablesQuery,
	columnsQuery:     mysqlColumnsQuery,
	foreignKeysQuery: mysqlForeignKeysQuery,
}

const mysqlTablesQuery = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
ORDER BY table_name;
`

const mysqlColumnsQuery = `
SELECT
	column_name,
	data_type,
	(is_nullable = 'YES') AS is_nullable,
	column_default
FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ?
ORDER BY ordinal_position;
`

const mysqlForeignKeysQuery = `
SELECT
	kcu.constraint_name,
	kcu.column_name,
	kcu.referenced_table_name,
	kcu.referenced_column_name,
	rc.delete_rule,
	rc.update_rule
FROM information_schema.key_column_usage AS kcu
JOIN information_schema.referential_constraints AS rc
	ON rc.constraint_schema = kcu.constraint_schema
	AND rc.constraint_name = kcu.constraint_name
WHERE kcu.table_schema = DATABASE()
	AND kcu.table_name = ?
	AND kcu.referenced_table_name IS NOT NULL
ORDER BY kcu.constraint_name, kcu.ordinal_position;
`
