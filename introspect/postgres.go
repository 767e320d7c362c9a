package introspect

var postgresCatalog = informationSchema{
	tablesQuery:      pgTablesQuery,
	columnsQuery:     pgColumnsQuery,
	foreignKeysQuery: pgForeignKeysQuery,
}

const pgTablesQuery = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
ORDER BY table_name;
`

const pgColumnsQuery = `
SELECT
	column_name,
	data_type,
	(is_nullable = 'YES') AS is_nullable,
	column_default
FROM information_schema.columns
WHERE table_schema = 'public' AND table_name = $1
ORDER BY ordinal_position;
`

const pgForeignKeysQuery = `
SELECT
	tc.constraint_name,
	kcu.column_name,
	ccu.table_name AS foreign_table_name,
	ccu.column_name AS foreign_column_name,
	COALESCE(rc.delete_rule, ''),
	COALESCE(rc.update_rule, '')
FROM information_schema.table_constraints AS tc
JOIN information_schema.key_column_usage AS kcu
	ON tc.constraint_name = kcu.constraint_name
	AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage AS ccu
	ON ccu.constraint_name = tc.constraint_name
	AND ccu.table_schema = tc.table_schema
LEFT JOIN information_schema.referential_constraints AS rc
	ON tc.constraint_name = rc.constraint_name
WHERE tc.constraint_type = 'FOREIGN KEY'
	AND tc.table_schema = 'public'
	AND tc.table_name = $1
ORDER BY tc.constraint_name;
`
