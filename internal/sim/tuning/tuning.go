package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int `yaml:"tick_rate_hz"`
	// Bounds is [minX, minZ, maxX, maxZ] of the ground plane.
	Bounds [4]float64 `yaml:"bounds"`

	// ConstructionDelay is the transition (seconds) between reaching a site
	// and the first construction tick.
	ConstructionDelay float64 `yaml:"construction_delay"`
	// MovingVelocity is the speed above which an agent counts as moving for
	// presentation.
	MovingVelocity float64 `yaml:"moving_velocity"`

	Radii Radii `yaml:"radii"`

	TickLog TickLog `yaml:"tick_log"`
	Index   Index   `yaml:"index"`

	digest string
}

// Radii are used when a scenario leaves an entity radius unset.
type Radii struct {
	Collect float64 `yaml:"collect"`
	Access  float64 `yaml:"access"`
	Pickup  float64 `yaml:"pickup"`
	Site    float64 `yaml:"site"`
}

type TickLog struct {
	Enabled bool `yaml:"enabled"`
	// SkipIdleTicks omits entries for ticks with no applied orders.
	SkipIdleTicks bool `yaml:"skip_idle_ticks"`
}

type Index struct {
	Enabled   bool `yaml:"enabled"`
	QueueSize int  `yaml:"queue_size"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:   "1.0",
		TickRateHz:        10,
		Bounds:            [4]float64{-256, -256, 256, 256},
		ConstructionDelay: 0.5,
		MovingVelocity:    0.6,
		Radii: Radii{
			Collect: 1.5,
			Access:  1,
			Pickup:  1,
			Site:    2,
		},
		TickLog: TickLog{Enabled: true},
		Index:   Index{Enabled: true, QueueSize: 4096},
	}
}

// Load reads path over Defaults(), so a partial file only overrides what it
// names.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	sum := sha256.Sum256(raw)
	t.digest = hex.EncodeToString(sum[:])
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 || t.TickRateHz > 1000 {
		return fmt.Errorf("tick_rate_hz out of range: %d", t.TickRateHz)
	}
	if t.Bounds[0] >= t.Bounds[2] || t.Bounds[1] >= t.Bounds[3] {
		return fmt.Errorf("bounds must be [minX, minZ, maxX, maxZ] with min < max")
	}
	if t.ConstructionDelay < 0 {
		return fmt.Errorf("construction_delay must be >= 0")
	}
	return nil
}

// TickSeconds is the simulated duration of one tick.
func (t Tuning) TickSeconds() float64 {
	if t.TickRateHz <= 0 {
		return 0.1
	}
	return 1 / float64(t.TickRateHz)
}

// Digest is the sha256 of the loaded file, empty for Defaults().
func (t Tuning) Digest() string { return t.digest }
