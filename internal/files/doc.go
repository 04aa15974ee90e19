// Package files stores generated downloads.
//
// A Store writes each output under a random uuid name inside one directory,
// serves it back by id and removes it after a TTL. Ids are validated before
// any path is built, so a request can only reach files the Store created.
//
// Example usage:
//
//	store, err := files.NewStore("data/downloads", time.Hour, []string{".csv", ".xlsx"}, logger)
//	id, err := store.Save(".csv", func(w io.Writer) error {
//	    return exporter.WriteCSV(w, wide, exporter.CSVOptions{})
//	})
//	go store.RunJanitor(ctx, 10*time.Minute)
package files
