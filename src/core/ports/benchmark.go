package ports

import "dbkit/src/core/domain"

// Timer measures named sections. Namespaces are reused sequentially;
// starting one that is already running overwrites its start marker.
type Timer interface {
	Start(namespace string)
	End(namespace string)
	Result(namespace string) (domain.BenchmarkRecord, bool)
}
