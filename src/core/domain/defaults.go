package domain

import "time"

// Conventional column names managed by the statement builder.
const (
	DefaultIdentityColumn  = "id"
	DefaultCreatedAtColumn = "created_at"
	DefaultUpdatedAtColumn = "updated_at"
)

// DefaultTemporaryTablePrefix prefixes tables created by CreateCloneTemporaryTable.
const DefaultTemporaryTablePrefix = "TMP_"

// DefaultSlowQueryThreshold is the elapsed time at which a query is logged as slow.
const DefaultSlowQueryThreshold = 500 * time.Millisecond

// Log channels.
const (
	ChannelDatabase  = "database"
	ChannelException = "exception"
)

// Benchmark namespaces, one per operation kind.
const (
	NamespaceDefault        = "default"
	NamespaceInsert         = "INSERT"
	NamespaceInsertMultiple = "INSERT_MULTIPLE"
	NamespaceUpsertMultiple = "INSERT_DUPLICATE_KEY_UPDATE"
	NamespaceUpdate         = "UPDATE"
	NamespaceDelete         = "DELETE"
	NamespaceExplain        = "EXPLAIN"
)
