package anvil

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zlib"

	"github.com/TheTechdoodle/region-api/pkg/nbt"
)

// deflateLevel is the zlib level for recompressed chunks. Every chunk is
// recompressed once per clone, so compression cost dominates throughput;
// level 1 keeps the output valid zlib at a fraction of the CPU time.
const deflateLevel = 1

// CloneOptions customize a clone. The zero value is a silent clone.
type CloneOptions struct {
	// Log, if non-nil, receives per-chunk debug records and a completion
	// summary.
	Log *slog.Logger

	// Progress, if non-nil, is called once per grid slot in emission order.
	// present reports whether the slot held a chunk.
	Progress func(x, z int, present bool)
}

// Clone writes a copy of src to dst, displaced from region (fromRX, fromRZ)
// to region (toRX, toRZ). Every present chunk is inflated, its coordinate
// tags rewritten, and the result deflated and packed into fresh sectors.
// The timestamp table is copied verbatim; the location table is rebuilt for
// the new sector layout and written last, so an interrupted clone never
// leaves a header pointing at partial payloads.
//
// dst must be opened for writing; the caller retains ownership and closes
// it. On error the destination contents are undefined and must be
// discarded.
func Clone(src *Region, dst *os.File, fromRX, fromRZ, toRX, toRZ int, opts *CloneOptions) error {
	if opts == nil {
		opts = &CloneOptions{}
	}

	disp := nbt.DisplacementBetween(fromRX, fromRZ, toRX, toRZ)
	rewriter := nbt.NewRewriter(disp)

	if err := dst.Truncate(headerSectors * SectorSize); err != nil {
		return fmt.Errorf("truncate destination: %w", err)
	}
	if _, err := dst.Seek(headerSectors*SectorSize, io.SeekStart); err != nil {
		return fmt.Errorf("seek past headers: %w", err)
	}

	out := bufio.NewWriterSize(dst, SectorSize)

	// One deflater and one inflater for the whole clone, reset per chunk.
	deflater, err := zlib.NewWriterLevel(io.Discard, deflateLevel)
	if err != nil {
		return fmt.Errorf("create deflater: %w", err)
	}
	var inflater io.ReadCloser

	var locations [SectorSize]byte
	var compressed bytes.Buffer
	nextSector := headerSectors
	chunks := 0
	i := 0

	for z := 0; z < 32; z++ {
		for x := 0; x < 32; x++ {
			srcOffset := src.Offset(x, z)
			srcSectors := src.Sectors(x, z)

			if srcOffset == 0 && srcSectors == 0 {
				// Not generated; the location entry stays zero.
				if opts.Progress != nil {
					opts.Progress(x, z, false)
				}
				i++
				continue
			}

			raw, err := src.ChunkCompressed(srcOffset)
			if err != nil {
				return fmt.Errorf("chunk (%d,%d): %w", x, z, err)
			}

			body := bytes.NewReader(raw)
			if inflater == nil {
				inflater, err = zlib.NewReader(body)
			} else {
				err = inflater.(zlib.Resetter).Reset(body, nil)
			}
			if err != nil {
				return fmt.Errorf("chunk (%d,%d): inflate: %w", x, z, err)
			}

			compressed.Reset()
			deflater.Reset(&compressed)
			if err := rewriter.Rewrite(inflater, deflater); err != nil {
				return fmt.Errorf("chunk (%d,%d): rewrite: %w", x, z, err)
			}
			if err := deflater.Close(); err != nil {
				return fmt.Errorf("chunk (%d,%d): deflate: %w", x, z, err)
			}

			// Frame plus padding to the next sector boundary.
			payload := compressed.Bytes()
			partLength := len(payload) + 5
			sectors := (partLength + SectorSize - 1) / SectorSize
			if sectors > maxSectors {
				return fmt.Errorf("chunk (%d,%d): %d sectors: %w", x, z, sectors, ErrSectorOverflow)
			}

			var frame [5]byte
			binary.BigEndian.PutUint32(frame[0:4], uint32(len(payload))+1)
			frame[4] = compressionZlib
			if _, err := out.Write(frame[:]); err != nil {
				return fmt.Errorf("chunk (%d,%d): write frame: %w", x, z, err)
			}
			if _, err := out.Write(payload); err != nil {
				return fmt.Errorf("chunk (%d,%d): write payload: %w", x, z, err)
			}
			if pad := sectors*SectorSize - partLength; pad > 0 {
				if _, err := out.Write(make([]byte, pad)); err != nil {
					return fmt.Errorf("chunk (%d,%d): write padding: %w", x, z, err)
				}
			}

			e := i * 4
			locations[e] = byte(nextSector >> 16)
			locations[e+1] = byte(nextSector >> 8)
			locations[e+2] = byte(nextSector)
			locations[e+3] = byte(sectors)
			nextSector += sectors
			chunks++

			if opts.Log != nil {
				opts.Log.Debug("chunk cloned",
					"x", x, "z", z, "sectors", sectors, "bytes", len(payload))
			}
			if opts.Progress != nil {
				opts.Progress(x, z, true)
			}
			i++
		}
	}

	if err := out.Flush(); err != nil {
		return fmt.Errorf("flush chunk data: %w", err)
	}

	// Headers go in last, after every payload is on disk.
	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek to header: %w", err)
	}
	if _, err := dst.Write(locations[:]); err != nil {
		return fmt.Errorf("write location table: %w", err)
	}
	if _, err := dst.Write(src.Timestamps()); err != nil {
		return fmt.Errorf("write timestamp table: %w", err)
	}

	if opts.Log != nil {
		opts.Log.Info("region cloned",
			"chunks", chunks,
			"sectors", nextSector,
			"chunkXDisp", disp.ChunkX,
			"chunkZDisp", disp.ChunkZ,
		)
	}
	return nil
}

// CloneFile clones the region file at srcPath to dstPath, creating or
// replacing the destination. It owns both file handles for the duration of
// the call and releases them on every exit path.
func CloneFile(srcPath, dstPath string, fromRX, fromRZ, toRX, toRZ int, opts *CloneOptions) error {
	src, err := Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer dst.Close()

	if err := Clone(src, dst, fromRX, fromRZ, toRX, toRZ, opts); err != nil {
		return err
	}
	return dst.Close()
}
