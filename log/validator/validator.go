// Package validator checks the CRC32 checksums that prefix every line the
// certval logger writes to stdout and stderr.
package validator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nxadm/tail"
	"github.com/prometheus/client_golang/prometheus"

	blog "github.com/letsencrypt/certval/log"
)

var errInvalidChecksum = errors.New("invalid checksum length")

// errorPrefix marks lines the validator emits itself.
const errorPrefix = "log-validator:"

// lineValid checks a line of the form
//
//	checksum SP message
//
// where checksum is the unpadded URL-safe base64 of the CRC32 of message.
func lineValid(text string) error {
	checksum, msg, ok := strings.Cut(text, " ")
	if !ok {
		return fmt.Errorf("%s line doesn't match expected format", errorPrefix)
	}
	_, err := base64.RawURLEncoding.DecodeString(checksum)
	if err != nil || len(checksum) != 6 {
		return fmt.Errorf(
			"%s expected a 6 character base64 raw URL decodable string, got %q: %w",
			errorPrefix,
			checksum,
			errInvalidChecksum,
		)
	}

	// If we are fed our own output, treat it as always valid. This
	// prevents runaway scenarios where we generate ever-longer output.
	if strings.Contains(msg, errorPrefix) {
		return nil
	}
	computed := blog.LogLineChecksum(msg)
	if checksum != computed {
		return fmt.Errorf("%s invalid checksum (expected %q, got %q)", errorPrefix, computed, checksum)
	}
	return nil
}

// Result counts the lines of one file.
type Result struct {
	Lines int
	Bad   int
}

// ValidateFile checks every line of filename once, logging each bad line.
func ValidateFile(filename string, logger blog.Logger) (Result, error) {
	var res Result
	t, err := tail.TailFile(filename, tail.Config{
		MustExist: true,
		Follow:    false,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return res, err
	}
	defer t.Cleanup()

	for line := range t.Lines {
		if line.Err != nil {
			return res, line.Err
		}
		if line.Text == "" {
			continue
		}
		res.Lines++
		err := lineValid(line.Text)
		if err != nil {
			res.Bad++
			logger.Errf("%s [line %d] %s", filename, line.Num, err)
		}
	}
	return res, t.Wait()
}

// Follower tails every file matching a set of globs and counts valid and
// invalid lines as they are written.
type Follower struct {
	// mu guards tailers so that Run's shutdown cannot race pollPaths.
	mu       sync.Mutex
	patterns []string
	tailers  map[string]*tail.Tail

	lineCounter *prometheus.CounterVec
	log         blog.Logger
}

// NewFollower returns a Follower for patterns, a list of file globs.
func NewFollower(patterns []string, logger blog.Logger, stats prometheus.Registerer) *Follower {
	lineCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "log_lines",
		Help: "A counter of log lines processed, with status",
	}, []string{"filename", "status"})
	stats.MustRegister(lineCounter)

	return &Follower{
		patterns:    patterns,
		tailers:     map[string]*tail.Tail{},
		lineCounter: lineCounter,
		log:         logger,
	}
}

// Run looks for new matching files every minute until ctx is done, then stops
// tailing.
func (f *Follower) Run(ctx context.Context) {
	defer f.stop()
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			f.pollPaths()
			timer.Reset(time.Minute)
		}
	}
}

func (f *Follower) pollPaths() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pattern := range f.patterns {
		paths, err := filepath.Glob(pattern)
		if err != nil {
			f.log.Err(err.Error())
		}
		for _, path := range paths {
			if _, ok := f.tailers[path]; ok {
				continue
			}
			t, err := tail.TailFile(path, tail.Config{
				ReOpen:        true,
				MustExist:     false,
				Follow:        true,
				Logger:        tailLogger{f.log},
				CompleteLines: true,
			})
			if err != nil {
				f.log.Errf("unexpected error from TailFile: %v", err)
				continue
			}
			go f.follow(path, t.Lines)
			f.tailers[path] = t
		}
	}
}

func (f *Follower) follow(filename string, lines chan *tail.Line) {
	// At most one error line per second, so that a broken writer cannot fill
	// the disk with our complaints.
	outputLimiter := time.NewTicker(time.Second)
	defer outputLimiter.Stop()

	for line := range lines {
		if line.Err != nil {
			f.log.Errf("error while tailing %s: %s", filename, line.Err)
			continue
		}
		err := lineValid(line.Text)
		switch {
		case err == nil:
			f.lineCounter.WithLabelValues(filename, "ok").Inc()
			continue
		case errors.Is(err, errInvalidChecksum):
			f.lineCounter.WithLabelValues(filename, "invalid checksum length").Inc()
		default:
			f.lineCounter.WithLabelValues(filename, "bad").Inc()
		}
		select {
		case <-outputLimiter.C:
			f.log.Errf("%s: %s %q", filename, err, line.Text)
		default:
		}
	}
}

func (f *Follower) stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tailers {
		// Stopping a tailer whose file was removed and recreated can report
		// a spurious inotify error; it is harmless.
		_ = t.Stop()
		t.Cleanup()
	}
}
