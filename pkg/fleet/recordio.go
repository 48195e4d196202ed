package fleet

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxRecordSize bounds a single event; offers for a large cluster stay well below it
const maxRecordSize = 16 << 20

// recordReader splits a RecordIO stream: each record is its length in
// decimal, a newline, then that many bytes.
type recordReader struct {
	r *bufio.Reader
}

func newRecordReader(r io.Reader) *recordReader {
	return &recordReader{r: bufio.NewReader(r)}
}

func (rr *recordReader) next() ([]byte, error) {
	header, err := rr.r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	size, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil {
		return nil, fmt.Errorf("invalid record header %q: %w", header, err)
	}
	if size < 0 || size > maxRecordSize {
		return nil, fmt.Errorf("record size %d out of range", size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(rr.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
