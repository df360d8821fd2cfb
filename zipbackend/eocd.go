package zipbackend

import (
	"encoding/binary"
	"io"
)

// centralDirLocation is what the end-of-central-directory record points at.
type centralDirLocation struct {
	offset     uint32
	size       uint32
	numEntries uint16
}

// findEOCD seeks backward from the end of the archive looking for the EOCD
// signature, bounded by maxEOCDSearch steps. It returns ok=false if no
// signature is found within that bound, meaning the archive is rejected as
// unreadable.
func findEOCD(r io.ReaderAt, fileSize int64) (centralDirLocation, bool) {
	if fileSize < eocdFixedSize {
		return centralDirLocation{}, false
	}

	start := fileSize - eocdFixedSize

	var sig [4]byte

	for step := 0; step < maxEOCDSearch; step++ {
		pos := start - int64(step)
		if pos < 0 {
			break
		}

		if _, err := r.ReadAt(sig[:], pos); err != nil {
			continue
		}

		if binary.LittleEndian.Uint32(sig[:]) != eocdSignature {
			continue
		}

		var rest [18]byte
		if _, err := r.ReadAt(rest[:], pos+4); err != nil {
			continue
		}

		return centralDirLocation{
			numEntries: binary.LittleEndian.Uint16(rest[6:8]),
			size:       binary.LittleEndian.Uint32(rest[8:12]),
			offset:     binary.LittleEndian.Uint32(rest[12:16]),
		}, true
	}

	return centralDirLocation{}, false
}

// centralDirEntry is one parsed central-directory record, before any
// encoding/case-folding/mount-prefix processing.
type centralDirEntry struct {
	rawName           []byte
	uncompressedSize  uint32
	localHeaderOffset uint32
}

// readCentralDirectory iterates central-directory records starting at
// cd.offset, stopping at the first record whose signature doesn't match.
// That's not itself an error: an archive may have fewer readable records
// than cd.numEntries claims.
func readCentralDirectory(r io.ReaderAt, archiveSize int64, cd centralDirLocation) []centralDirEntry {
	entries := make([]centralDirEntry, 0, cd.numEntries)

	cursor := int64(cd.offset)

	for {
		var sig [4]byte
		if _, err := r.ReadAt(sig[:], cursor); err != nil {
			break
		}

		if binary.LittleEndian.Uint32(sig[:]) != centralDirSignature {
			break
		}

		cursor += 4

		// 20 bytes: version-made-by/needed, flags, method, mtime/mdate, CRC32, compressed-size.
		var fixed [20]byte
		if _, err := r.ReadAt(fixed[:], cursor); err != nil {
			break
		}
		cursor += 20

		var sizeBuf [4]byte
		if _, err := r.ReadAt(sizeBuf[:], cursor); err != nil {
			break
		}
		uncompressedSize := binary.LittleEndian.Uint32(sizeBuf[:])
		cursor += 4

		var lenBuf [6]byte
		if _, err := r.ReadAt(lenBuf[:], cursor); err != nil {
			break
		}
		filepathLen := binary.LittleEndian.Uint16(lenBuf[0:2])
		extraLen := binary.LittleEndian.Uint16(lenBuf[2:4])
		commentLen := binary.LittleEndian.Uint16(lenBuf[4:6])
		cursor += 6

		// 8 bytes: disk number, internal/external attrs prefix.
		cursor += 8

		var offBuf [4]byte
		if _, err := r.ReadAt(offBuf[:], cursor); err != nil {
			break
		}
		localHeaderOffset := binary.LittleEndian.Uint32(offBuf[:])
		cursor += 4

		name := make([]byte, filepathLen)
		if filepathLen > 0 {
			if _, err := r.ReadAt(name, cursor); err != nil {
				break
			}
		}
		cursor += int64(filepathLen)

		cursor += int64(extraLen) + int64(commentLen)

		entries = append(entries, centralDirEntry{
			rawName:           name,
			uncompressedSize:  uncompressedSize,
			localHeaderOffset: localHeaderOffset,
		})

		if cursor >= archiveSize {
			break
		}
	}

	return entries
}
