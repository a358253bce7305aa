// Package resync implements the optional UID/UIDVALIDITY persistence
// cache spec.md §6 allows applications to keep "for resynchronization":
// a folder's UIDVALIDITY and the UID set last seen, so a reconnecting
// client can detect a UIDVALIDITY change (discard the cache) or, when
// it hasn't changed, diff the new UID set against the cached one to
// find additions/removals without re-FETCHing everything.
//
// Grounded on spilldb/db.Open's Init-then-pool pattern and
// spilldb/imapdb's conn.Prep/Step/sqlitex.Save usage.
package resync

import (
	"context"
	"fmt"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
)

const createSQL = `
CREATE TABLE IF NOT EXISTS ResyncFolders (
	Name TEXT PRIMARY KEY,
	UIDValidity INTEGER NOT NULL,
	UIDNext INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS ResyncUIDs (
	FolderName TEXT NOT NULL,
	UID INTEGER NOT NULL,
	PRIMARY KEY (FolderName, UID)
) WITHOUT ROWID;
`

// Cache is a sqlite-backed UID/UIDVALIDITY store, one row per folder
// plus one row per cached UID.
type Cache struct {
	pool *sqlitex.Pool
}

// Open opens (creating if necessary) the sqlite database at dbfile and
// applies the cache schema, mirroring spilldb/db.Open's
// OpenConn-then-Init-then-Pool sequence.
func Open(dbfile string) (*Cache, error) {
	conn, err := sqlite.OpenConn(dbfile, 0)
	if err != nil {
		return nil, fmt.Errorf("resync.Open: init open: %v", err)
	}
	if err := sqlitex.ExecScript(conn, createSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("resync.Open: init schema: %v", err)
	}
	if err := conn.Close(); err != nil {
		return nil, fmt.Errorf("resync.Open: init close: %v", err)
	}
	pool, err := sqlitex.Open(dbfile, 0, 4)
	if err != nil {
		return nil, fmt.Errorf("resync.Open: pool: %v", err)
	}
	return &Cache{pool: pool}, nil
}

func (c *Cache) Close() error { return c.pool.Close() }

// FolderState is the persisted UIDVALIDITY/UIDNEXT pair for one folder.
type FolderState struct {
	UIDValidity uint32
	UIDNext     uint32
}

// LoadFolderState returns the cached state for name, and ok=false if
// this folder has never been saved.
func (c *Cache) LoadFolderState(ctx context.Context, name string) (state FolderState, ok bool, err error) {
	conn := c.pool.Get(ctx)
	if conn == nil {
		return FolderState{}, false, context.Canceled
	}
	defer c.pool.Put(conn)

	stmt := conn.Prep("SELECT UIDValidity, UIDNext FROM ResyncFolders WHERE Name = $name;")
	stmt.SetText("$name", name)
	hasNext, err := stmt.Step()
	if err != nil {
		return FolderState{}, false, err
	}
	if !hasNext {
		stmt.Reset()
		return FolderState{}, false, nil
	}
	state.UIDValidity = uint32(stmt.GetInt64("UIDValidity"))
	state.UIDNext = uint32(stmt.GetInt64("UIDNext"))
	stmt.Reset()
	return state, true, nil
}

// SaveFolderState upserts name's UIDVALIDITY/UIDNEXT. When uidValidity
// differs from the previously cached value, the caller should also
// call ClearUIDs: a UIDVALIDITY change invalidates every cached UID
// (spec.md's glossary: "UIDs are meaningful only within one UIDVALIDITY
// epoch for one folder").
func (c *Cache) SaveFolderState(ctx context.Context, name string, state FolderState) (err error) {
	conn := c.pool.Get(ctx)
	if conn == nil {
		return context.Canceled
	}
	defer c.pool.Put(conn)
	defer sqlitex.Save(conn)(&err)

	stmt := conn.Prep(`INSERT INTO ResyncFolders (Name, UIDValidity, UIDNext) VALUES ($name, $uidValidity, $uidNext)
		ON CONFLICT (Name) DO UPDATE SET UIDValidity = $uidValidity, UIDNext = $uidNext;`)
	stmt.SetText("$name", name)
	stmt.SetInt64("$uidValidity", int64(state.UIDValidity))
	stmt.SetInt64("$uidNext", int64(state.UIDNext))
	_, err = stmt.Step()
	return err
}

// ClearUIDs deletes every cached UID for name (on UIDVALIDITY change).
func (c *Cache) ClearUIDs(ctx context.Context, name string) (err error) {
	conn := c.pool.Get(ctx)
	if conn == nil {
		return context.Canceled
	}
	defer c.pool.Put(conn)
	defer sqlitex.Save(conn)(&err)

	stmt := conn.Prep("DELETE FROM ResyncUIDs WHERE FolderName = $name;")
	stmt.SetText("$name", name)
	_, err = stmt.Step()
	return err
}

// SaveUIDs replaces the cached UID set for name with uids, in one
// transaction (sqlitex.Save, the same helper spilldb/imapdb uses to
// wrap multi-statement mailbox updates).
func (c *Cache) SaveUIDs(ctx context.Context, name string, uids []uint32) (err error) {
	conn := c.pool.Get(ctx)
	if conn == nil {
		return context.Canceled
	}
	defer c.pool.Put(conn)
	defer sqlitex.Save(conn)(&err)

	del := conn.Prep("DELETE FROM ResyncUIDs WHERE FolderName = $name;")
	del.SetText("$name", name)
	if _, err = del.Step(); err != nil {
		return err
	}

	ins := conn.Prep("INSERT INTO ResyncUIDs (FolderName, UID) VALUES ($name, $uid);")
	for _, uid := range uids {
		ins.Reset()
		ins.SetText("$name", name)
		ins.SetInt64("$uid", int64(uid))
		if _, err = ins.Step(); err != nil {
			return err
		}
	}
	return nil
}

// LoadUIDs returns the cached UID set for name, in ascending order.
func (c *Cache) LoadUIDs(ctx context.Context, name string) ([]uint32, error) {
	conn := c.pool.Get(ctx)
	if conn == nil {
		return nil, context.Canceled
	}
	defer c.pool.Put(conn)

	var uids []uint32
	stmt := conn.Prep("SELECT UID FROM ResyncUIDs WHERE FolderName = $name ORDER BY UID ASC;")
	stmt.SetText("$name", name)
	for {
		hasNext, err := stmt.Step()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}
		uids = append(uids, uint32(stmt.GetInt64("UID")))
	}
	return uids, nil
}

// Diff computes which UIDs were added or removed since the last
// SaveUIDs call for name, without the caller needing to FETCH the
// whole folder — the incremental-resync use case spec.md §6 names.
func Diff(cached, current []uint32) (added, removed []uint32) {
	cachedSet := make(map[uint32]bool, len(cached))
	for _, u := range cached {
		cachedSet[u] = true
	}
	currentSet := make(map[uint32]bool, len(current))
	for _, u := range current {
		currentSet[u] = true
		if !cachedSet[u] {
			added = append(added, u)
		}
	}
	for _, u := range cached {
		if !currentSet[u] {
			removed = append(removed, u)
		}
	}
	return added, removed
}
