package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, verboseOn bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseOn)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels_WhenVerbose(t *testing.T) {
	buf := capture(t, true)

	Debug("fetch %s", "a")
	Info("parsed %d", 2)
	Warn("skipped")
	Section("Merge")

	assert.Equal(t, "[DEBUG] fetch a\n[INFO] parsed 2\n[WARN] skipped\n\n=== Merge ===\n", buf.String())
}

func TestLevels_WhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	Debug("fetch")
	Info("parsed")
	Warn("skipped")
	Section("Merge")

	assert.Empty(t, buf.String())
}

func TestError_AlwaysPrinted(t *testing.T) {
	buf := capture(t, false)

	Error("write %s", "corpus")

	assert.Equal(t, "[ERROR] write corpus\n", buf.String())
}

func TestJob_PrefixesMessages(t *testing.T) {
	buf := capture(t, true)

	Job("nku_web").Info("fetched %d", 3)
	Job("catalog").Error("boom")

	assert.Equal(t, "[INFO] [nku_web] fetched 3\n[ERROR] [catalog] boom\n", buf.String())
}

func TestPrintf_TrimsNewlines(t *testing.T) {
	buf := capture(t, true)
	p := Printf{Name: "badger"}

	p.Infof("opened %s\n", "cache")
	p.Errorf("failed\n")

	assert.Equal(t, "[DEBUG] badger: opened cache\n[ERROR] badger: failed\n", buf.String())
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, true)
	SetOutput(&safeBuffer{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetVerbose(true)
		}()
		go func(n int) {
			defer wg.Done()
			Debug("message %d", n)
			Error("message %d", n)
		}(i)
	}
	wg.Wait()
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *safeBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}
