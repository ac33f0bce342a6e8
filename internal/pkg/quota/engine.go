package quota

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/TutorDeskHQ/TutorDesk/app/models"
)

// DefaultMaxPerMonth applies when no limit has been configured.
const DefaultMaxPerMonth = 1

// CallCounter counts non-cancelled calls for an enrollment requested at or
// after a given instant. Satisfied by repository.CallRepository.
type CallCounter interface {
	CountActiveSince(enrollmentID uint, since time.Time) (int64, error)
}

// SettingReader reads a configuration value by key. Satisfied by
// repository.SettingRepository. Reads must hit the store; the engine never
// caches the configured limit.
type SettingReader interface {
	GetValue(key string) (string, error)
}

// Snapshot is the usage of one enrollment inside the current IST month.
type Snapshot struct {
	Used      int `json:"used"`
	Max       int `json:"max"`
	Remaining int `json:"remaining"`
}

// Engine computes per-enrollment call usage against the configured monthly
// limit. Every Check recomputes the window and re-reads the limit, so a
// call counted in one month never bleeds into the next and admin limit
// changes take effect immediately.
type Engine struct {
	calls    CallCounter
	settings SettingReader
	now      func() time.Time
}

// NewEngine creates a quota engine over the given stores.
func NewEngine(calls CallCounter, settings SettingReader) *Engine {
	return &Engine{
		calls:    calls,
		settings: settings,
		now:      time.Now,
	}
}

// Check returns the current usage snapshot for an enrollment.
func (e *Engine) Check(enrollmentID uint) (Snapshot, error) {
	windowStart := MonthWindowStart(e.now(), ISTOffset)

	used, err := e.calls.CountActiveSince(enrollmentID, windowStart)
	if err != nil {
		return Snapshot{}, err
	}

	max, err := e.maxPerMonth()
	if err != nil {
		return Snapshot{}, err
	}

	remaining := max - int(used)
	if remaining < 0 {
		remaining = 0
	}

	return Snapshot{Used: int(used), Max: max, Remaining: remaining}, nil
}

// maxPerMonth reads the configured limit fresh from the setting store.
// Absent or malformed values fall back to the default; store errors propagate.
func (e *Engine) maxPerMonth() (int, error) {
	raw, err := e.settings.GetValue(models.SettingKeyParentCallMaxPerMonth)
	if err != nil {
		return 0, err
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultMaxPerMonth, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Printf("ignoring malformed %s value %q", models.SettingKeyParentCallMaxPerMonth, raw)
		return DefaultMaxPerMonth, nil
	}
	return n, nil
}
