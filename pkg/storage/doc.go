// Package storage is the root of tinytable's disk-based storage engine.
//
// Data is organised into fixed-size 4 KB pages that are read and written as
// atomic units. The sub-packages build on each other, codec first:
//
//   - [tinytable/pkg/storage/page]  – The shared page geometry: the 4 KB page
//     size every other sub-package assumes.
//   - [tinytable/pkg/storage/row]   – Fixed-width row codec: one id/username/
//     email tuple to and from a 297-byte slot.
//   - [tinytable/pkg/storage/node]  – Byte-level accessors that interpret a
//     page as a leaf node: common header, cell count, and the (key, row)
//     cell array.
//   - [tinytable/pkg/storage/pager] – The page cache: a direct-mapped array
//     of page buffers over a single backing file, loaded lazily and flushed
//     on close.
//   - [tinytable/pkg/storage/table] – Table lifecycle (open, root-leaf
//     bootstrap, close) and the cursor used to walk and append cells.
//
// # File layout
//
// A database file is a raw sequence of 4 KB pages. Page 0 is the root leaf.
// Each leaf page carries a 10-byte header (node type, root flag, parent page
// index, cell count) followed by a tight array of 301-byte cells, zero-padded
// to the end of the page. All multi-byte integers are little-endian, so a
// file written on one machine reads identically on any other.
package storage
