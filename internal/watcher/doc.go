// Package watcher keeps the version cache in sync with an observation feed.
//
// The Watcher imports the feed once on Start and again whenever fsnotify
// reports that the feed file was written, created or replaced. Bursts of
// events are debounced into a single import, and each import runs in one
// store transaction so readers never observe a half-applied feed.
//
// Example usage:
//
//	st, err := store.Open("~/.cincan/registry/tooldb.sqlite")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer st.Close()
//
//	w, err := watcher.New(st, "feed.yaml", watcher.WithLogger(logger))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := w.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
//
//	// Or run detached
//	if err := watcher.StartDaemon(pidFile, logFile, "watch", "feed.yaml", "--daemon-child"); err != nil {
//		log.Fatal(err)
//	}
package watcher
