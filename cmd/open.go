package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"scenetune/internal/config"
	"scenetune/internal/journal"
	"scenetune/internal/session"
	"scenetune/internal/telemetry"
)

// handles bundles a session with the collaborators that need closing when
// the command finishes.
type handles struct {
	sess *session.Session
	jnl  *journal.Journal
	emit *telemetry.Emitter
	cfg  config.Config
}

func (h *handles) close() {
	if h.emit != nil {
		h.emit.Close() //nolint:errcheck
	}
	if h.jnl != nil {
		h.jnl.Close() //nolint:errcheck
	}
}

// openScript opens a session on the script with journal and telemetry
// attached per config.
func openScript(ctx context.Context, script string) (*handles, error) {
	cfg := config.Load()
	h := &handles{cfg: cfg}

	if cfg.Journal {
		jnl, err := journal.Open(ctx, session.JournalPath(script))
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		h.jnl = jnl
	}
	if cfg.TelemetryPath != "" {
		emit, err := telemetry.NewEmitter(cfg.TelemetryPath)
		if err != nil {
			h.close()
			return nil, fmt.Errorf("open telemetry log: %w", err)
		}
		h.emit = emit
	}

	sess, err := session.Open(ctx, script, session.Options{Journal: h.jnl, Telemetry: h.emit})
	if err != nil {
		h.close()
		return nil, err
	}
	h.sess = sess
	return h, nil
}

// presetsDir resolves where presets live for a script: the configured
// directory, or the script's own directory when unset.
func presetsDir(cfg config.Config, script string) string {
	if cfg.PresetsDir != "" {
		return cfg.PresetsDir
	}
	return filepath.Dir(script)
}
