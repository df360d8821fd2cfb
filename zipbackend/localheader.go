package zipbackend

import (
	"encoding/binary"
	"io"
)

// localHeaderInfo is what's needed to hand a stream adapter the entry's
// actual data range.
type localHeaderInfo struct {
	dataOffset     uint32
	method         compressionMethod
	compressedSize uint32
}

// readLocalHeader parses the local-file-header prefix at fileoffset (the
// ZipEntry's recorded offset) and resolves where the entry's data begins.
func readLocalHeader(r io.ReaderAt, fileoffset uint32) (localHeaderInfo, bool) {
	var sig [4]byte
	if _, err := r.ReadAt(sig[:], int64(fileoffset)); err != nil {
		return localHeaderInfo{}, false
	}

	if binary.LittleEndian.Uint32(sig[:]) != localHeaderSignature {
		return localHeaderInfo{}, false
	}

	// version needed (2) + flags (2) + compression (2).
	var head [6]byte
	if _, err := r.ReadAt(head[:], int64(fileoffset)+4); err != nil {
		return localHeaderInfo{}, false
	}

	compression := binary.LittleEndian.Uint16(head[4:6])

	// time/date (2+2) + CRC32 (4) + compressed-size (4).
	var sizes [12]byte
	if _, err := r.ReadAt(sizes[:], int64(fileoffset)+4+6); err != nil {
		return localHeaderInfo{}, false
	}

	compressedSize := binary.LittleEndian.Uint32(sizes[8:12])

	// uncompressed size (4, redundant) + filepath-length (2) + extra-length (2).
	var lens [8]byte
	if _, err := r.ReadAt(lens[:], int64(fileoffset)+4+6+12); err != nil {
		return localHeaderInfo{}, false
	}

	filepathLen := binary.LittleEndian.Uint16(lens[4:6])
	extraLen := binary.LittleEndian.Uint16(lens[6:8])

	dataOffset := fileoffset + localHeaderFixedSize + uint32(filepathLen) + uint32(extraLen)

	return localHeaderInfo{
		dataOffset:     dataOffset,
		method:         compressionMethodFromCode(compression),
		compressedSize: compressedSize,
	}, true
}
