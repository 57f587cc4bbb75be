package docstore

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/dmitrymomot/docvault/pkg/remote"
)

// BackupTimeLayout is the timestamp layout used in backup file names.
const BackupTimeLayout = "20060102-150405"

// SnapshotOutcome is the result of the snapshot step of WriteJSON.
type SnapshotOutcome int

const (
	// SnapshotSkipped means there was no existing document to snapshot.
	SnapshotSkipped SnapshotOutcome = iota
	// SnapshotDone means the existing document was copied to a backup file.
	SnapshotDone
)

func (o SnapshotOutcome) String() string {
	if o == SnapshotDone {
		return "done"
	}
	return "skipped"
}

// BackupName returns the backup document name for name taken at t,
// in t's location: "<name>.<YYYYMMDD-HHMMSS>.bak.json".
func BackupName(name string, t time.Time) string {
	return name + "." + t.Format(BackupTimeLayout) + ".bak.json"
}

// snapshot copies the document at remotePath to its backup sibling within
// the given session. A missing document is not an error.
func (s *Store) snapshot(ctx context.Context, sess remote.Session, name, remotePath string) (SnapshotOutcome, string, error) {
	var backupPath string
	outcome := SnapshotSkipped
	err := withStaging(s.stagingDir, "docstore_old", func(f *os.File) error {
		if err := sess.Retrieve(ctx, remotePath, f); err != nil {
			if remote.IsNotFound(err) {
				return nil
			}
			return err
		}

		p, err := s.resolver.Resolve(BackupName(name, s.now()))
		if err != nil {
			return err
		}
		if err := sess.MakeDirAll(ctx, path.Dir(p)); err != nil {
			return err
		}
		if err := rewind(f); err != nil {
			return err
		}
		if err := sess.Store(ctx, p, f); err != nil {
			return err
		}
		backupPath = p
		outcome = SnapshotDone
		return nil
	})
	return outcome, backupPath, err
}
