// Package watcher reports when the index views change.
//
// A Watcher captures the view digests once at start, then re-captures them
// whenever the SQLite database file (or its WAL/journal) is written, and on a
// fixed interval when one is configured. Bursts of file events are coalesced
// by a debounce timer. Captures that fail because the store is temporarily
// unavailable are retried with exponential backoff.
//
// Example usage:
//
//	q := index.New(st)
//	m := snapshots.New(st, q, snapshotDir)
//
//	w, err := watcher.New(m, dbPath, watcher.WithOnChange(func(c watcher.Change) {
//		fmt.Println(c.Changed)
//	}))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := w.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
package watcher
