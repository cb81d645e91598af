package ltable

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/okvlab/okv/lib/service/ltable/internal"
	"github.com/okvlab/okv/lib/table"
)

// --------------------------------------------------------------------------
// Snapshot Persistence (service.ISnapshotter)
// --------------------------------------------------------------------------

// Constants for the snapshot file format
const (
	magicNum        = "OKVTBL\x00" // File format identifier
	snapshotVersion = 1            // Snapshot format version
)

// SaveSnapshot persists the table to the writer, preserving insertion order
// and pending TTLs. Entries are written head to tail, so loading them in
// file order rebuilds the exact same table.
//
// Thread-safety: This method takes a read lock; concurrent reads are allowed
// but writes block for the duration of the save.
func (t *tableImpl) SaveSnapshot(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 1024*1024) // 1 MB buffer

	t.mu.RLock()
	defer t.mu.RUnlock()

	// Write file header
	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}

	if err := binary.Write(bw, binary.LittleEndian, uint8(snapshotVersion)); err != nil {
		return err
	}

	// Write the clock tick so restored TTLs keep their remaining lifetime
	if err := binary.Write(bw, binary.LittleEndian, t.clock.Now()); err != nil {
		return err
	}

	// Write entry count
	if err := binary.Write(bw, binary.LittleEndian, uint64(t.tbl.Len())); err != nil {
		return err
	}

	// Write entries in insertion order
	for key, entry := range t.tbl.All() {
		keyBytes := []byte(key)
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(keyBytes))); err != nil {
			return err
		}
		if _, err := bw.Write(keyBytes); err != nil {
			return err
		}

		if err := binary.Write(bw, binary.LittleEndian, entry.ExpireAt); err != nil {
			return err
		}

		if err := binary.Write(bw, binary.LittleEndian, uint32(len(entry.Value))); err != nil {
			return err
		}
		if _, err := bw.Write(entry.Value); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// LoadSnapshot replaces the table state with the one read from the reader.
//
// Thread-safety: This method is not safe for use concurrently with other
// operations and should only be called during initialization or recovery.
func (t *tableImpl) LoadSnapshot(r io.Reader) error {
	br := bufio.NewReaderSize(r, 1024*1024) // 1 MB buffer

	// Read and verify magic number
	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return err
	}
	if string(magicBytes) != magicNum {
		return fmt.Errorf("invalid file format: magic number mismatch")
	}

	// Read and verify version
	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}
	if int(version) != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %d (expected %d)", version, snapshotVersion)
	}

	// Read clock tick
	var savedTick uint64
	if err := binary.Read(br, binary.LittleEndian, &savedTick); err != nil {
		return err
	}

	// Read entry count
	var count uint64
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return err
	}

	// Rebuild into a fresh table so a failed load can't leave a half state
	fresh := table.New[string, internal.Entry]()

	for i := uint64(0); i < count; i++ {
		var keyLen uint32
		if err := binary.Read(br, binary.LittleEndian, &keyLen); err != nil {
			return err
		}
		keyBytes := make([]byte, keyLen)
		if _, err := io.ReadFull(br, keyBytes); err != nil {
			return err
		}

		var expireAt uint64
		if err := binary.Read(br, binary.LittleEndian, &expireAt); err != nil {
			return err
		}

		var valueLen uint32
		if err := binary.Read(br, binary.LittleEndian, &valueLen); err != nil {
			return err
		}
		value := make([]byte, valueLen)
		if _, err := io.ReadFull(br, value); err != nil {
			return err
		}

		// Entries arrive in insertion order, appending preserves it
		fresh.Set(string(keyBytes), internal.Entry{Value: value, ExpireAt: expireAt})
	}

	t.clock.Advance(savedTick)

	t.mu.Lock()
	t.tbl = fresh
	t.mu.Unlock()

	// Re-register pending deadlines with the janitor
	for key, entry := range fresh.All() {
		if entry.ExpireAt > 0 {
			t.notifyJanitor(key, entry.ExpireAt)
		}
	}

	return nil
}
