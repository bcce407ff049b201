package host

import (
	"encoding/binary"
	"io/fs"
	"time"

	"github.com/zeebo/blake3"

	"github.com/jmgilman/go/buildfs/store"
)

const blockSize = 512

// Stat is the stat shape the compiler toolchain expects. It embeds the
// store's fs.FileInfo, so Name, Size, Mode, ModTime and IsDir are the real
// values.
//
// Dev, Ino, Perm, Nlink, UID, GID, Rdev and Blksize are filler. They are
// stable for a given host and path but carry no meaning. Blocks and the
// four timestamps are derived from the store's metadata.
type Stat struct {
	fs.FileInfo

	Dev     uint64
	Ino     uint64
	Perm    fs.FileMode
	Nlink   uint64
	UID     uint32
	GID     uint32
	Rdev    uint64
	Blksize int64
	Blocks  int64

	Atime     time.Time
	Mtime     time.Time
	Ctime     time.Time
	Birthtime time.Time
}

func (s *Stat) IsBlockDevice() bool     { return false }
func (s *Stat) IsCharacterDevice() bool { return false }
func (s *Stat) IsFIFO() bool            { return false }
func (s *Stat) IsSymbolicLink() bool    { return false }
func (s *Stat) IsSocket() bool          { return false }

// Stat returns metadata for name, or nil when the merged view has no entry
// for it.
func (h *Host) Stat(name string) *Stat {
	p := h.Resolve(name)
	exists, err := h.store.Exists(p)
	if err != nil || !exists {
		return nil
	}

	info, err := h.store.Stat(p)
	if err != nil {
		h.logger.Debug("stat failed", "path", p, "error", err)
		return nil
	}

	times := store.TimesOf(info)
	return &Stat{
		FileInfo:  info,
		Dev:       h.dev,
		Ino:       inode(p),
		Perm:      0o777,
		Nlink:     1,
		Blksize:   blockSize,
		Blocks:    (info.Size() + blockSize - 1) / blockSize,
		Atime:     times.Access,
		Mtime:     times.Modify,
		Ctime:     times.Change,
		Birthtime: times.Birth,
	}
}

// inode derives a stable inode number from a resolved path.
func inode(p string) uint64 {
	sum := blake3.Sum256([]byte(p))
	return binary.LittleEndian.Uint64(sum[:8])
}
