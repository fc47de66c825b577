package log

import (
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"io"
	"strings"
)

// checksumWriter prefixes every line written through it with the CRC32 of
// that line, without its trailing newline, so that truncated or interleaved
// log lines can be detected. Callers must write exactly one line per Write
// call.
type checksumWriter struct {
	inner io.Writer
}

// NewChecksumWriter returns a checksumWriter which wraps the given io.Writer.
func NewChecksumWriter(inner io.Writer) io.Writer {
	return &checksumWriter{inner: inner}
}

func (w *checksumWriter) Write(line []byte) (int, error) {
	sum := LogLineChecksum(strings.TrimSuffix(string(line), "\n"))
	out := make([]byte, 0, len(sum)+1+len(line))
	out = append(out, sum...)
	out = append(out, ' ')
	out = append(out, line...)
	return w.inner.Write(out)
}

// LogLineChecksum computes the little-endian CRC32 of line, encoded as
// unpadded URL-safe base64.
func LogLineChecksum(line string) string {
	var buf [crc32.Size]byte
	binary.LittleEndian.PutUint32(buf[:], crc32.ChecksumIEEE([]byte(line)))
	return base64.RawURLEncoding.EncodeToString(buf[:])
}
