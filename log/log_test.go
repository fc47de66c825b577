package log

import (
	"bytes"
	"log/syslog"
	"strings"
	"testing"

	"github.com/jmhodges/clock"

	"github.com/letsencrypt/certval/test"
)

func newBufferedLogger(level int) (Logger, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &impl{
		&stdoutWriter{
			stdout: &stdout,
			stderr: &stderr,
			level:  level,
			clk:    clock.NewFake(),
		},
	}, &stdout, &stderr
}

func TestStdoutLevels(t *testing.T) {
	logger, stdout, stderr := newBufferedLogger(int(syslog.LOG_INFO))

	logger.Infof("evidence for serial %s", "0a1b")
	logger.Debug("this is suppressed")
	logger.Warning("cache disabled")
	logger.Errf("call to %s failed", "afirma")

	out := stdout.String()
	test.AssertContains(t, out, "I")
	test.AssertContains(t, out, "evidence for serial 0a1b")
	test.AssertNotContains(t, out, "this is suppressed")

	errOut := stderr.String()
	test.AssertContains(t, errOut, "cache disabled")
	test.AssertContains(t, errOut, "[AUDIT] call to afirma failed")
}

func TestNewlinesEscaped(t *testing.T) {
	logger, stdout, _ := newBufferedLogger(int(syslog.LOG_DEBUG))
	logger.Info("first\nsecond")
	test.AssertEquals(t, strings.Count(stdout.String(), "\n"), 1)
	test.AssertContains(t, stdout.String(), `first\nsecond`)
}

func TestChecksummedLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewChecksumWriter(&buf)
	_, err := w.Write([]byte("hello\n"))
	test.AssertNotError(t, err, "writing line")
	test.AssertEquals(t, buf.String(), LogLineChecksum("hello")+" hello\n")
}

func TestAuditObject(t *testing.T) {
	m := NewMock()
	m.AuditObject("validation result", map[string]string{"outcome": "revoked"})
	test.AssertEquals(t, len(m.GetAllMatching(`\[AUDIT\] validation result JSON=\{"outcome":"revoked"\}`)), 1)

	m.Clear()
	m.AuditObject("unserializable", func() {})
	test.AssertEquals(t, len(m.GetAllMatching(`^ERR: \[AUDIT\] Object for msg "unserializable" could not be serialized`)), 1)
}

func TestMockMatching(t *testing.T) {
	m := NewMock()
	m.Infof("no evidence for %s", "CN=Issuer")
	m.Warning("two records matched")

	test.AssertEquals(t, len(m.GetAll()), 2)
	test.AssertEquals(t, len(m.GetAllMatching("^INFO: no evidence")), 1)
	test.AssertNotError(t, m.ExpectMatch("WARNING: two records"), "expected a warning")
	test.AssertError(t, m.ExpectMatch("nothing like this"), "expected no match")

	m.Clear()
	test.AssertEquals(t, len(m.GetAll()), 0)
}

func TestAuditPanic(t *testing.T) {
	m := NewMock()
	defer func() {
		err := recover()
		test.AssertEquals(t, err, "boom")
		test.AssertEquals(t, len(m.GetAllMatching(`Panic caused by err: boom`)), 1)
	}()
	func() {
		defer m.AuditPanic()
		panic("boom")
	}()
}

func TestSetTwice(t *testing.T) {
	// The singleton may already be set by another test, so only check that a
	// second Set fails.
	_ = Set(NewMock())
	err := Set(NewMock())
	test.AssertError(t, err, "second Set should fail")
}
