package clientconfig

import (
	"bytes"
	"time"

	"github.com/BurntSushi/toml"
)

// Tuning holds client knobs that aren't part of kubeconfig: backoff
// bounds for pkg/watch and request timeouts. Grounded on the teacher's
// pkg/config/config_default.go merge-by-TOML-round-trip idiom: an
// explicit override is merged onto DefaultTuning by encoding it to TOML
// and decoding that back onto the base, so a zero-valued field in the
// override (meaning "unset") never clobbers the default.
type Tuning struct {
	RequestTimeout time.Duration `toml:"request_timeout,omitzero"`
	WatchBackoffMin time.Duration `toml:"watch_backoff_min,omitzero"`
	WatchBackoffMax time.Duration `toml:"watch_backoff_max,omitzero"`
}

// DefaultTuning mirrors pkg/watch.NewBackoff's defaults, plus a
// conservative request timeout. No code in this module reads a Tuning:
// Config.Transport sets no client timeout, and a Watcher always uses
// NewBackoff's defaults.
func DefaultTuning() Tuning {
	return Tuning{
		RequestTimeout:  30 * time.Second,
		WatchBackoffMin: 500 * time.Millisecond,
		WatchBackoffMax: 30 * time.Second,
	}
}

// LoadTuning reads a TOML tuning file and merges it onto DefaultTuning.
// A missing or empty path returns the defaults unchanged.
func LoadTuning(path string) (Tuning, error) {
	base := DefaultTuning()
	if path == "" {
		return base, nil
	}
	var override Tuning
	if _, err := toml.DecodeFile(path, &override); err != nil {
		return base, err
	}
	return mergeTuning(base, override), nil
}

func mergeTuning(base, override Tuning) Tuning {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(override); err != nil {
		return base
	}
	_, _ = toml.NewDecoder(&buf).Decode(&base)
	return base
}
