package ember

import (
	"os"
	"strconv"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvDisableParticles  = "EMBER_DISABLE_PARTICLES"
	EnvEditorPreviewTime = "EMBER_EDITOR_PREVIEW_TIME"
)

// Config holds process-wide switches. They are read once per update.
type Config struct {
	// Disabled turns every update into a no-op.
	Disabled bool
	// EditorPreview replaces the running clock with EditorPreviewTime.
	EditorPreview     bool
	EditorPreviewTime int // milliseconds
	// RandomTableSize is the Random table length. 0 selects the default.
	RandomTableSize int
}

// DefaultConfig returns a Config with particles enabled and no preview.
func DefaultConfig() Config {
	return Config{RandomTableSize: DefaultRandomTableSize}
}

// ConfigFromEnv returns DefaultConfig adjusted by EMBER_DISABLE_PARTICLES
// (any strconv.ParseBool true value) and EMBER_EDITOR_PREVIEW_TIME
// (milliseconds; setting it enables preview mode). Malformed values are
// logged and ignored.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v, ok := os.LookupEnv(EnvDisableParticles); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			warnf("%s=%q is not a boolean", EnvDisableParticles, v)
		} else {
			cfg.Disabled = b
		}
	}
	if v, ok := os.LookupEnv(EnvEditorPreviewTime); ok {
		ms, err := strconv.Atoi(v)
		if err != nil {
			warnf("%s=%q is not an integer", EnvEditorPreviewTime, v)
		} else {
			cfg.EditorPreview = true
			cfg.EditorPreviewTime = ms
		}
	}
	return cfg
}
