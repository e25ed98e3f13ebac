package progress

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// Timer logs the duration of successive phases of a call at debug level,
// together with the resident memory of the process.
type Timer struct {
	logger *zap.Logger
	proc   *process.Process
	start  time.Time
	last   time.Time
}

// NewTimer starts a timer. A nil logger yields a no-op timer.
func NewTimer(l *zap.Logger) *Timer {
	if l == nil {
		l = zap.NewNop()
	}
	now := time.Now()
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &Timer{logger: l, proc: proc, start: now, last: now}
}

// Lap logs msg with the time since the previous lap and returns it.
func (t *Timer) Lap(msg string) time.Duration {
	now := time.Now()
	lap := now.Sub(t.last)
	t.last = now

	if ce := t.logger.Check(zap.DebugLevel, msg); ce != nil {
		fields := []zap.Field{
			zap.Duration("lap", lap),
			zap.Duration("total", now.Sub(t.start)),
		}
		if rss, ok := t.rss(); ok {
			fields = append(fields, zap.Uint64("rss_bytes", rss))
		}
		ce.Write(fields...)
	}
	return lap
}

// Total is the time since the timer started.
func (t *Timer) Total() time.Duration {
	return time.Since(t.start)
}

func (t *Timer) rss() (uint64, bool) {
	if t.proc == nil {
		return 0, false
	}
	info, err := t.proc.MemoryInfo()
	if err != nil || info == nil {
		return 0, false
	}
	return info.RSS, true
}
