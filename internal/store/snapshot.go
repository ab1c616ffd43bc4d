// JSON snapshot serialization for the memory store. Writes go to a temp file first and
// are swapped in with os.Rename, so a crash mid-write never corrupts the live snapshot.

package store

import (
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/zenithpay/ledger-service/internal/domain"
)

type snapshotMeta struct {
	Storage   string    `json:"storage"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

type snapshotFile struct {
	Meta     snapshotMeta      `json:"_meta"`
	Accounts []*domain.Account `json:"accounts"`
}

// loadSnapshot reads the snapshot at path. A missing file yields an empty account set.
func loadSnapshot(path string) ([]*domain.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var snap snapshotFile
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, err
	}
	return snap.Accounts, nil
}

// writeSnapshot serializes the accounts atomically, sorted by id for stable output.
func writeSnapshot(path string, accounts []*domain.Account) error {
	sorted := make([]*domain.Account, len(accounts))
	copy(sorted, accounts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	snap := snapshotFile{
		Meta: snapshotMeta{
			Storage:   "json_snapshot",
			Version:   1,
			Timestamp: time.Now().UTC(),
		},
		Accounts: sorted,
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
