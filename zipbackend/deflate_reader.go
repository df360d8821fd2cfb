package zipbackend

import (
	"io"
	"math"

	"github.com/klauspost/compress/flate"

	"github.com/desertwitch/vfscore/internal/logging"
)

// deflateBufSize is the small fixed output-buffer size for deflateReader,
// matching storedReader's bufsize.
const deflateBufSize = 128

// deflateReader presents a DEFLATE-compressed range
// [dataOffset, dataOffset+compressedLength) as a seekable stream of
// uncompressed logical positions [0, fileLength).
//
// klauspost/compress/flate is the streaming inflater with reset and
// partial-input/partial-output support this adapter is built around: its
// Reader already pulls compressed input from an io.Reader on demand and
// produces decompressed output a Read() call at a time, and its concrete
// type satisfies flate.Resetter for the replay-from-start behavior backward
// seeks require.
type deflateReader struct {
	pool   *pool
	handle *poolHandle

	dataOffset       int64
	fileLength       int64
	compressedLength int64

	remaining int64 // uncompressed bytes not yet produced into outBuf

	lr       *io.LimitedReader
	inflater io.ReadCloser

	outBuf      [deflateBufSize]byte
	outLen      int   // valid bytes in outBuf
	outPos      int   // next unread byte in outBuf
	outBufStart int64 // logical position of outBuf[0]

	failed bool
	closed bool
}

func newDeflateReader(p *pool, h *poolHandle, dataOffset, fileLength, compressedLength uint32) (*deflateReader, error) {
	if _, err := h.f.Seek(int64(dataOffset), io.SeekStart); err != nil {
		return nil, err
	}

	limit := int64(compressedLength)
	if limit == 0 && fileLength > 0 {
		// Entries written with a trailing data descriptor record 0 as the
		// compressed size in the local header; the inflater then reads
		// until the DEFLATE stream's final block.
		limit = math.MaxInt64
	}

	lr := &io.LimitedReader{R: h.f, N: limit}

	return &deflateReader{
		pool:             p,
		handle:           h,
		dataOffset:       int64(dataOffset),
		fileLength:       int64(fileLength),
		compressedLength: limit,
		remaining:        int64(fileLength),
		lr:               lr,
		inflater:         flate.NewReader(lr),
	}, nil
}

// refill requests up to min(deflateBufSize, remaining) output bytes from
// the inflater, replacing the entire output buffer. Errors
// other than end-of-stream set the failed flag for the next Read to report.
func (r *deflateReader) refill() error {
	want := deflateBufSize
	if r.remaining < int64(want) {
		want = int(r.remaining)
	}

	if want == 0 {
		r.outBufStart = r.fileLength - r.remaining
		r.outPos, r.outLen = 0, 0

		return io.EOF
	}

	var n int
	var err error

	for n < want {
		var m int
		m, err = r.inflater.Read(r.outBuf[n:want])
		n += m
		if err != nil || m == 0 {
			break
		}
	}

	r.outBufStart = r.fileLength - r.remaining
	r.remaining -= int64(n)
	r.outPos, r.outLen = 0, n

	if n == 0 {
		if err != nil && err != io.EOF {
			r.failed = true
			logging.Printf("zipbackend: inflate error at offset %d: %v\n", r.outBufStart, err)

			return err
		}

		return io.EOF
	}

	if err != nil && err != io.EOF {
		r.failed = true
		logging.Printf("zipbackend: inflate error at offset %d: %v\n", r.outBufStart+int64(n), err)
	}

	return nil
}

// Read implements io.Reader.
func (r *deflateReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, io.ErrClosedPipe
	}

	if r.failed {
		return 0, io.ErrUnexpectedEOF
	}

	if r.outPos >= r.outLen {
		if err := r.refill(); err != nil {
			return 0, err
		}
	}

	n := copy(p, r.outBuf[r.outPos:r.outLen])
	r.outPos += n

	return n, nil
}

func (r *deflateReader) position() int64 {
	return r.outBufStart + int64(r.outPos)
}

// reset rewinds the backing handle to the start of the entry's data and
// resets the inflater, discarding all buffered output.
func (r *deflateReader) reset() error {
	if _, err := r.handle.f.Seek(r.dataOffset, io.SeekStart); err != nil {
		return err
	}

	r.lr = &io.LimitedReader{R: r.handle.f, N: r.compressedLength}

	if resetter, ok := r.inflater.(flate.Resetter); ok {
		if err := resetter.Reset(r.lr, nil); err != nil {
			return err
		}
	} else {
		r.inflater = flate.NewReader(r.lr)
	}

	r.remaining = r.fileLength
	r.outBufStart = 0
	r.outPos, r.outLen = 0, 0
	r.failed = false

	return nil
}

// Seek implements io.Seeker. A seek, forward or backward, landing inside the
// currently materialized output window just repositions the intra-buffer
// pointer, a rare fast path; any other seek resets the stream and
// replays forward from the entry's start, discarding output, until the
// target position falls inside the freshly materialized window.
func (r *deflateReader) Seek(offset int64, whence int) (int64, error) {
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

	if target >= r.outBufStart && target < r.outBufStart+int64(r.outLen) {
		r.outPos = int(target - r.outBufStart)

		return target, nil
	}

	if err := r.reset(); err != nil {
		return 0, err
	}

	for r.outBufStart+int64(r.outLen) <= target {
		if err := r.refill(); err != nil {
			break
		}
	}

	remainder := target - r.outBufStart
	if remainder < 0 {
		remainder = 0
	} else if remainder > int64(r.outLen) {
		remainder = int64(r.outLen)
	}

	r.outPos = int(remainder)

	return target, nil
}

// Close releases the leased backing handle back to the pool. Pushback
// (unreading a byte) is not supported: deflateReader does not implement
// io.ByteScanner.
func (r *deflateReader) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true
	cerr := r.inflater.Close()
	r.pool.release(r.handle)

	return cerr
}

var _ io.ReadSeekCloser = (*deflateReader)(nil)
