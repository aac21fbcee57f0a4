// Package anvil reads Minecraft Anvil (.mca) region files and clones them
// to a different region-grid position, rewriting the absolute coordinates
// embedded in each chunk's compressed NBT payload.
package anvil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// SectorSize is the allocation unit of a region file.
	SectorSize = 4096

	// headerSectors is the space reserved for the location and timestamp
	// tables at the start of every region file.
	headerSectors = 2

	compressionGzip = 1
	compressionZlib = 2

	// maxSectors is the largest sector count representable in a location
	// table entry's single-byte length field.
	maxSectors = 0xFF
)

var (
	// ErrTruncated is returned when a region file is too short to hold its
	// header tables or a chunk frame it references.
	ErrTruncated = errors.New("anvil: truncated region file")

	// ErrCompression is returned when a chunk frame's compression scheme is
	// not zlib. Gzip chunks (scheme 1) do not occur in practice and feeding
	// one to the inflater would mis-decode it silently.
	ErrCompression = errors.New("anvil: unsupported compression scheme")

	// ErrSectorOverflow is returned when a rewritten chunk would need more
	// sectors than the location table's length byte can record.
	ErrSectorOverflow = errors.New("anvil: chunk exceeds 255 sectors")
)

// Region is a read-only view of an Anvil region file. It keeps the file
// open for random chunk access and holds copies of the two 4096-byte
// header tables. Not safe for concurrent use.
type Region struct {
	f          *os.File
	locations  [SectorSize]byte
	timestamps [SectorSize]byte
}

// Open opens a region file and reads its location and timestamp tables.
func Open(path string) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open region file: %w", err)
	}

	r := &Region{f: f}
	if _, err := io.ReadFull(f, r.locations[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("read location table: %w", headerErr(err))
	}
	if _, err := io.ReadFull(f, r.timestamps[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("read timestamp table: %w", headerErr(err))
	}
	return r, nil
}

// headerErr maps short reads of the fixed-size headers to ErrTruncated.
func headerErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	return err
}

// chunkIndex returns the byte offset of chunk (x, z)'s entry in the
// location and timestamp tables. Coordinates are masked to 0..31, so
// callers may pass chunk coordinates relative to any origin.
func chunkIndex(x, z int) int {
	return ((x & 31) << 2) + ((z & 31) << 7)
}

// Offset returns the sector offset of chunk (x, z) from the location
// table, or 0 if the chunk has not been generated. The top nibble of the
// first byte is reserved and masked off.
func (r *Region) Offset(x, z int) int {
	i := chunkIndex(x, z)
	return int(r.locations[i]&0x0F)<<16 | int(r.locations[i+1])<<8 | int(r.locations[i+2])
}

// Sectors returns the sector count of chunk (x, z) from the location table.
func (r *Region) Sectors(x, z int) int {
	return int(r.locations[chunkIndex(x, z)+3])
}

// ChunkCompressed reads the compressed payload of the chunk stored at the
// given sector offset. The frame's stored length covers the scheme byte,
// so the payload is length-1 bytes. Only zlib (scheme 2) is accepted.
func (r *Region) ChunkCompressed(sectorOffset int) ([]byte, error) {
	if _, err := r.f.Seek(int64(sectorOffset)*SectorSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to sector %d: %w", sectorOffset, err)
	}

	var frame [5]byte
	if _, err := io.ReadFull(r.f, frame[:]); err != nil {
		return nil, fmt.Errorf("read chunk frame at sector %d: %w", sectorOffset, headerErr(err))
	}

	length := binary.BigEndian.Uint32(frame[0:4])
	if length == 0 {
		return nil, fmt.Errorf("chunk frame at sector %d: %w", sectorOffset, ErrTruncated)
	}
	if scheme := frame[4]; scheme != compressionZlib {
		return nil, fmt.Errorf("chunk frame at sector %d: scheme %d: %w", sectorOffset, scheme, ErrCompression)
	}

	data := make([]byte, length-1)
	if _, err := io.ReadFull(r.f, data); err != nil {
		return nil, fmt.Errorf("read chunk data at sector %d: %w", sectorOffset, headerErr(err))
	}
	return data, nil
}

// ChunkSize returns the stored frame length of chunk (x, z) in bytes, or 0
// if the chunk has not been generated.
func (r *Region) ChunkSize(x, z int) (int, error) {
	offset := r.Offset(x, z)
	if offset == 0 && r.Sectors(x, z) == 0 {
		return 0, nil
	}

	if _, err := r.f.Seek(int64(offset)*SectorSize, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek to sector %d: %w", offset, err)
	}
	var buf [4]byte
	if _, err := io.ReadFull(r.f, buf[:]); err != nil {
		return 0, fmt.Errorf("read chunk length at sector %d: %w", offset, headerErr(err))
	}
	return int(binary.BigEndian.Uint32(buf[:])), nil
}

// Locations returns the raw 4096-byte location table. The caller must not
// modify it.
func (r *Region) Locations() []byte {
	return r.locations[:]
}

// Timestamps returns the raw 4096-byte timestamp table. The caller must
// not modify it.
func (r *Region) Timestamps() []byte {
	return r.timestamps[:]
}

// Close releases the underlying file handle. Safe to call more than once.
func (r *Region) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
