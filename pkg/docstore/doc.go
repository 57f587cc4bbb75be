// Package docstore stores small JSON documents under a fixed base directory of
// a remote transport.
//
// Every operation opens its own session through a remote.Manager, so transient
// transport failures are retried and the session is always closed. Bytes move
// through local staging files that are removed on every exit path.
//
// Absence is a value, not an error: Exists returns false, Read and ReadJSON
// return found=false, List returns an empty slice and ModifiedAt returns
// ok=false when the document or the directory is missing.
//
// WriteJSON snapshots the current content of a document into a sibling
// "<name>.<YYYYMMDD-HHMMSS>.bak.json" before overwriting it. If the snapshot
// cannot be taken for any reason other than the document being absent, the
// write is abandoned.
//
//	store := docstore.New(manager, cfg, docstore.WithLogger(log))
//	if err := store.WriteJSON(ctx, "x.json", map[string]int{"a": 1}); err != nil {
//		return err
//	}
//	var doc map[string]int
//	found, err := store.ReadJSON(ctx, "x.json", &doc)
//
// Concurrent writers to the same document are not arbitrated.
package docstore
