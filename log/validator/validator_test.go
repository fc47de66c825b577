package validator

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	blog "github.com/letsencrypt/certval/log"
	"github.com/letsencrypt/certval/test"
)

func TestLineValidAccepts(t *testing.T) {
	var buf bytes.Buffer
	w := blog.NewChecksumWriter(&buf)
	_, err := w.Write([]byte("I2026-10-18T00:00:00.000000+00:00Z certval [AUDIT] Certificate validated\n"))
	test.AssertNotError(t, err, "writing line")
	err = lineValid(string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))))
	test.AssertNotError(t, err, "checksummed line should be valid")
}

func TestLineValidRejects(t *testing.T) {
	err := lineValid("nospace")
	test.AssertError(t, err, "line without a checksum should be invalid")

	err = lineValid("xxxx message")
	test.AssertErrorIs(t, err, errInvalidChecksum)

	err = lineValid(blog.LogLineChecksum("message") + " tampered message")
	test.AssertError(t, err, "wrong checksum should be invalid")
	test.AssertContains(t, err.Error(), "invalid checksum (expected")
}

func TestLineValidOwnOutput(t *testing.T) {
	err := lineValid("AAAAAA log-validator: complaining about another line")
	test.AssertNotError(t, err, "our own output should always be valid")
}

func TestValidateFile(t *testing.T) {
	var buf bytes.Buffer
	w := blog.NewChecksumWriter(&buf)
	for _, line := range []string{"first line\n", "second line\n"} {
		_, err := w.Write([]byte(line))
		test.AssertNotError(t, err, "writing line")
	}
	buf.WriteString("AAAAAA corrupted line\n")
	buf.WriteString("\n")

	path := filepath.Join(t.TempDir(), "certval.log")
	err := os.WriteFile(path, buf.Bytes(), 0600)
	test.AssertNotError(t, err, "writing log file")

	log := blog.NewMock()
	res, err := ValidateFile(path, log)
	test.AssertNotError(t, err, "validating file")
	test.AssertEquals(t, res.Lines, 3)
	test.AssertEquals(t, res.Bad, 1)
	test.AssertEquals(t, len(log.GetAllMatching(`\[line 3\]`)), 1)
}

func TestValidateFileMissing(t *testing.T) {
	_, err := ValidateFile(filepath.Join(t.TempDir(), "missing.log"), blog.NewMock())
	test.AssertError(t, err, "missing file should fail")
}
