package zipbackend

import (
	"io"
)

// storedBufSize is the small fixed output-buffer size for storedReader.
const storedBufSize = 128

// storedReader presents the stored (method 0) range
// [dataOffset, dataOffset+fileLength) of the archive as a seekable stream
// of logical positions [0, fileLength).
type storedReader struct {
	pool   *pool
	handle *poolHandle

	dataOffset int64
	fileLength int64
	remaining  int64

	buf    [storedBufSize]byte
	bufPos int // next unread byte within buf
	bufLen int // valid bytes currently in buf

	closed bool
}

// newStoredReader leases h (already acquired from p) and positions it at
// dataOffset.
func newStoredReader(p *pool, h *poolHandle, dataOffset uint32, fileLength uint32) (*storedReader, error) {
	if _, err := h.f.Seek(int64(dataOffset), io.SeekStart); err != nil {
		return nil, err
	}

	return &storedReader{
		pool:       p,
		handle:     h,
		dataOffset: int64(dataOffset),
		fileLength: int64(fileLength),
		remaining:  int64(fileLength),
	}, nil
}

func (r *storedReader) refill() error {
	want := storedBufSize
	if r.remaining < int64(want) {
		want = int(r.remaining)
	}

	if want == 0 {
		r.bufPos, r.bufLen = 0, 0

		return io.EOF
	}

	n, err := r.handle.f.Read(r.buf[:want])
	if n > 0 {
		r.remaining -= int64(n)
		r.bufPos, r.bufLen = 0, n

		return nil
	}

	r.bufPos, r.bufLen = 0, 0
	if err == nil {
		err = io.EOF
	}

	return err
}

// Read implements io.Reader.
func (r *storedReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, io.ErrClosedPipe
	}

	if r.bufPos >= r.bufLen {
		if err := r.refill(); err != nil {
			return 0, err
		}
	}

	n := copy(p, r.buf[r.bufPos:r.bufLen])
	r.bufPos += n

	return n, nil
}

// position returns the current logical position within the entry.
func (r *storedReader) position() int64 {
	return r.fileLength - r.remaining - int64(r.bufLen-r.bufPos)
}

// Seek implements io.Seeker, translating (whence, offset) to an absolute
// logical position clamped to [0, fileLength], repositioning the backing
// handle and invalidating the output buffer.
func (r *storedReader) Seek(offset int64, whence int) (int64, error) {
	if r.closed {
		return 0, io.ErrClosedPipe
	}

	var target int64

	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.position() + offset
	case io.SeekEnd:
		target = r.fileLength + offset
	default:
		return 0, io.ErrUnexpectedEOF
	}

	if target < 0 {
		target = 0
	} else if target > r.fileLength {
		target = r.fileLength
	}

	if _, err := r.handle.f.Seek(r.dataOffset+target, io.SeekStart); err != nil {
		return 0, err
	}

	r.remaining = r.fileLength - target
	r.bufPos, r.bufLen = 0, 0

	return target, nil
}

// Close releases the leased backing handle back to the pool.
func (r *storedReader) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true
	r.pool.release(r.handle)

	return nil
}

var _ io.ReadSeekCloser = (*storedReader)(nil)
