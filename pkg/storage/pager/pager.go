// Package pager mediates between page indices and file offsets. It owns the
// database file descriptor and a direct-mapped cache of page buffers: one
// slot per page index, filled lazily from disk, flushed back on demand and
// at close. There is no eviction; the engine is single-threaded and the
// whole table fits in MaxPages slots.
package pager

import (
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/sys/unix"

	"tinytable/pkg/storage/page"
)

const (
	// MaxPages bounds the page index space and the cache capacity.
	MaxPages = 100
)

// Pager owns the backing file and the page cache. A cache slot is non-nil
// iff the page has been requested since open; every mutation happens in that
// buffer and reaches disk only through FlushPage or Close.
type Pager struct {
	file       *os.File
	fileLength int64
	numPages   uint32
	pages      [MaxPages][]byte

	// Trace receives page-allocation events when non-nil. The REPL wires it
	// to its output stream in debug mode.
	Trace io.Writer
}

// Open opens (creating if absent, owner read+write) the database file at
// path, takes an exclusive advisory lock on it, and records its length.
// A file length that is not a multiple of the page size is tolerated: the
// partial tail counts as one whole page and reads zero-padded.
func Open(path string) (*Pager, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("unable to open file %s: %w", path, err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if err == unix.EWOULDBLOCK {
			return nil, fmt.Errorf("database file %s is locked by another process", path)
		}
		return nil, fmt.Errorf("unable to lock file %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("unable to stat file %s: %w", path, err)
	}

	length := info.Size()
	numPages := uint32(length / page.PageSize)
	if length%page.PageSize != 0 {
		// A crash mid-write can leave a short tail. Treat it as a whole page
		// so its contents stay reachable and the next close rewrites it full
		// length.
		numPages++
		log.Printf("warning: file length %d is not a multiple of the page size, loading partial tail page", length)
	}

	return &Pager{
		file:       file,
		fileLength: length,
		numPages:   numPages,
	}, nil
}

// GetPage returns the cached buffer for page idx, loading it from disk on a
// miss. A miss past the end of the file yields a zeroed page and extends the
// pager's page count. The returned slice is the cache slot itself: writes to
// it are what FlushPage later persists.
func (p *Pager) GetPage(idx uint32) ([]byte, error) {
	if idx >= MaxPages {
		return nil, fmt.Errorf("page index out of bounds: %d", idx)
	}

	if p.pages[idx] == nil {
		buf := make([]byte, page.PageSize)

		if int64(idx)*page.PageSize < p.fileLength {
			// A short read of the tail page is fine; the rest stays zero.
			if _, err := p.file.ReadAt(buf, int64(idx)*page.PageSize); err != nil && err != io.EOF {
				return nil, fmt.Errorf("error reading page %d: %w", idx, err)
			}
		}

		p.pages[idx] = buf

		if idx >= p.numPages {
			p.numPages = idx + 1
			if p.Trace != nil {
				fmt.Fprintf(p.Trace, "Page Added: Idx: %d, Num_pages: %d\n", idx, p.numPages)
			}
		}
	}

	return p.pages[idx], nil
}

// FlushPage writes the cached buffer for page idx back to the file, exactly
// one page, at idx times the page size. Flushing an index beyond the page
// count or an empty slot is an invariant violation, not an I/O problem, and
// is reported as an error for the caller to treat as fatal.
func (p *Pager) FlushPage(idx uint32) error {
	if idx >= p.numPages {
		return fmt.Errorf("page index is out of bounds: %d", idx)
	}
	if p.pages[idx] == nil {
		return fmt.Errorf("cannot flush empty page slot %d", idx)
	}

	if _, err := p.file.WriteAt(p.pages[idx], int64(idx)*page.PageSize); err != nil {
		return fmt.Errorf("failed to write page %d to disk: %w", idx, err)
	}

	return nil
}

// Close flushes every cached page in index order, syncs, releases the file
// lock, closes the descriptor, and drops the buffers. After a successful
// Close the file length is a multiple of the page size.
func (p *Pager) Close() error {
	for i := uint32(0); i < p.numPages; i++ {
		if p.pages[i] == nil {
			continue
		}
		if err := p.FlushPage(i); err != nil {
			return err
		}
		p.pages[i] = nil
	}

	// A partial tail page that was never requested is not flushed above;
	// extending the file to whole pages zero-pads it without losing bytes.
	if err := p.file.Truncate(int64(p.numPages) * page.PageSize); err != nil {
		return fmt.Errorf("failed to extend database file to whole pages: %w", err)
	}

	if err := p.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync database file: %w", err)
	}
	if err := unix.Flock(int(p.file.Fd()), unix.LOCK_UN); err != nil {
		return fmt.Errorf("failed to unlock database file: %w", err)
	}
	if err := p.file.Close(); err != nil {
		return fmt.Errorf("error closing database file: %w", err)
	}

	return nil
}

// NumPages returns the pager's current page count: pages on disk at open
// time plus any pages allocated since.
func (p *Pager) NumPages() uint32 {
	return p.numPages
}

// FileLength returns the backing file's length as observed at open time.
func (p *Pager) FileLength() int64 {
	return p.fileLength
}
