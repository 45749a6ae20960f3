// Package logtail reads the tail of netmoya's JSON log file.
//
// Read uses a ring buffer so only the last maxLines are kept in memory
// regardless of file size. Parse turns a zerolog JSON line into an Entry
// (time, level, message and the remaining fields); lines that are not JSON
// pass through as plain messages. Format and Colorize render entries for
// the logs command and the status view.
//
//	entries, err := logtail.ReadEntries(cfg.LogFile, 200)
//	for _, e := range entries {
//		fmt.Println(e.Colorize())
//	}
package logtail
