// Package connectivity tracks whether the internet is reachable.
//
// A PathSource reports interface changes (InterfaceWatcher polls the host's
// interfaces). For every satisfied path the Monitor runs one reachability
// probe against a generate_204 endpoint; a newer path event cancels the
// probe still in flight. Connected is true only when an interface is up and
// the probe answered 204.
//
// Subscribers receive deduplicated connected flags from a single dispatcher
// goroutine. The Monitor also satisfies api.Gate.
package connectivity
