// Package config loads the node configuration recognized by the core (§6):
// message pool geometry, protocol timers, the context-reuse delay, and the
// MAC whitelist, following the nested yaml-tagged struct convention used
// for node configuration elsewhere in the fleet.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level node configuration.
type Config struct {
	Pool      PoolConfig      `yaml:"pool"`
	Mac       MacConfig       `yaml:"mac"`
	Thread    ThreadConfig    `yaml:"thread"`
	Whitelist []WhitelistItem `yaml:"whitelist"`
}

// PoolConfig describes the message pool geometry.
type PoolConfig struct {
	NumBuffers int `yaml:"num_buffers"`
	BufferSize int `yaml:"buffer_size"`
}

// MacConfig describes MAC-layer timing and addressing.
type MacConfig struct {
	ShortAddress        uint16        `yaml:"short_address"`
	ExtendedAddress     string        `yaml:"extended_address"` // hex, big-endian Thread order
	PanID                uint16        `yaml:"pan_id"`
	AckTimeout           time.Duration `yaml:"ack_timeout"`
	ScanDefaultInterval  time.Duration `yaml:"scan_default_interval"`
	ScanChannelMaskAll   uint32        `yaml:"-"`
}

// ThreadConfig describes forwarder/resolver/leader timers.
type ThreadConfig struct {
	DiscoverTimeout     time.Duration `yaml:"discover_timeout"`
	ReassemblyTimeout    time.Duration `yaml:"reassembly_timeout"`
	DataTimeout          time.Duration `yaml:"data_timeout"`
	ContextIDReuseDelay  time.Duration `yaml:"context_id_reuse_delay"`
	PollPeriod           time.Duration `yaml:"poll_period"`
	CoapUDPPort          int           `yaml:"coap_udp_port"`
}

// WhitelistItem pins an allowed extended address, optionally with a fixed
// RSSI override reported for frames received from it (see
// SPEC_FULL.md "MAC whitelist RSSI override").
type WhitelistItem struct {
	ExtAddr      string `yaml:"ext_addr"` // hex
	FixedRSSI    *int8  `yaml:"fixed_rssi,omitempty"`
}

// kMacScanChannelMaskAllChannels per §6: channels 11..26.
const kMacScanChannelMaskAllChannels = 0x07fff800

// Default returns the default configuration (§6 constants).
func Default() Config {
	return Config{
		Pool: PoolConfig{
			NumBuffers: 128,
			BufferSize: 128,
		},
		Mac: MacConfig{
			AckTimeout:          200 * time.Millisecond,
			ScanDefaultInterval: 200 * time.Millisecond,
			ScanChannelMaskAll:  kMacScanChannelMaskAllChannels,
		},
		Thread: ThreadConfig{
			DiscoverTimeout:    3 * time.Second,
			ReassemblyTimeout:  5 * time.Second,
			DataTimeout:        10 * time.Second,
			ContextIDReuseDelay: 48 * time.Hour,
			PollPeriod:         2500 * time.Millisecond,
			CoapUDPPort:        61631,
		},
	}
}

// Load reads a YAML configuration file, falling back to Default() values
// for anything the file leaves zero.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Mac.ScanChannelMaskAll == 0 {
		cfg.Mac.ScanChannelMaskAll = kMacScanChannelMaskAllChannels
	}
	return cfg, nil
}
