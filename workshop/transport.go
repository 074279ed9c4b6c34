package workshop

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LoggingTransport wraps an http.RoundTripper and dumps every request and
// response to a file.
type LoggingTransport struct {
	Transport http.RoundTripper

	log     *zap.SugaredLogger
	logFile *os.File
	writer  *bufio.Writer
	mu      sync.Mutex
}

// NewLoggingTransport opens logFilePath for appending and wraps transport.
// A nil transport means http.DefaultTransport.
func NewLoggingTransport(transport http.RoundTripper, logFilePath string, log *zap.SugaredLogger) (*LoggingTransport, error) {
	f, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open API log file %s: %w", logFilePath, err)
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &LoggingTransport{
		Transport: transport,
		log:       log,
		logFile:   f,
		writer:    bufio.NewWriter(f),
	}, nil
}

// RoundTrip performs the request outside the lock and serializes only the
// file writes.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	reqDump, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		t.log.Warnw("Failed to dump API request", zap.Error(err))
	} else {
		t.write(fmt.Sprintf("--- Request (%s) ---\n%s", start.Format(time.RFC3339), reqDump))
	}

	resp, err := t.Transport.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.write(fmt.Sprintf("--- Response Error (Duration: %v) ---\n%s", duration, err))
		return resp, err
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		respDump, _ := httputil.DumpResponse(resp, false)
		t.write(fmt.Sprintf("--- Response (Duration: %v, Type: %s) ---\n%s(Body not logged)", duration, contentType, respDump))
		return resp, nil
	}

	bodyBytes, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	respDump, _ := httputil.DumpResponse(resp, false)
	t.write(fmt.Sprintf("--- Response (Duration: %v) ---\n%s%s", duration, respDump, bodyBytes))
	return resp, nil
}

func (t *LoggingTransport) write(entry string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.writer.WriteString(entry + "\n\n"); err != nil {
		t.log.Warnw("Failed to write API log", zap.Error(err))
		return
	}
	if err := t.writer.Flush(); err != nil {
		t.log.Warnw("Failed to flush API log", zap.Error(err))
	}
}

// Close flushes and closes the log file.
func (t *LoggingTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	errFlush := t.writer.Flush()
	errClose := t.logFile.Close()
	if errFlush != nil {
		return fmt.Errorf("failed to flush API log buffer: %w", errFlush)
	}
	return errClose
}

// RetryTransport retries transport errors, 429 and 5xx responses up to
// MaxRetries times with a linearly growing delay. It stops early when the
// request context is done.
type RetryTransport struct {
	Base       http.RoundTripper
	MaxRetries int
	Backoff    time.Duration
	Log        *zap.SugaredLogger
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	log := t.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	for attempt := 0; ; attempt++ {
		if attempt > 0 && req.Body != nil {
			if req.GetBody == nil {
				return nil, fmt.Errorf("cannot retry request to %s: body is not replayable", req.URL)
			}
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			req = req.Clone(req.Context())
			req.Body = body
		}

		resp, err := base.RoundTrip(req)
		if err == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if attempt >= t.MaxRetries || req.Context().Err() != nil {
			return resp, err
		}

		delay := time.Duration(attempt+1) * t.Backoff
		if err != nil {
			log.Warnw("Steam request failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", t.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(err))
		} else {
			log.Warnw("Steam returned a retryable status, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", t.MaxRetries),
				zap.Int("status", resp.StatusCode),
				zap.Duration("delay", delay))
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
