// Package config holds every tunable of the server. Defaults live here;
// environment variables override them.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig holds the swarm-defense simulation settings.
// Sizes are derived from the virtual screen the same way the desktop game did.
type SimConfig struct {
	ScreenWidth    float64       // Virtual screen width in units
	ScreenHeight   float64       // Virtual screen height in units
	TickRate       int           // Simulation ticks per second
	EnemySpeed     float64       // Units travelled per second while approaching
	EnemySize      float64       // Enemy square side length
	BaseSize       float64       // Player base square side length
	AttackCycle    time.Duration // Time an enemy must spend attacking before it lands a hit
	DyingDuration  time.Duration // Length of the dying animation
	StartHealth    int           // Player health at the start of a run
	CoinsPerKill   int           // Coins awarded for a click kill
	InitialEnemies int           // Enemies spawned when a run starts
	Seed           int64         // RNG seed (0 = time based)
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	const width, height = 1280, 720
	return SimConfig{
		ScreenWidth:    width,
		ScreenHeight:   height,
		TickRate:       30,
		EnemySpeed:     0.1 * height, // a tenth of the screen per second
		EnemySize:      0.025 * height,
		BaseSize:       0.1 * height,
		AttackCycle:    500 * time.Millisecond,
		DyingDuration:  400 * time.Millisecond,
		StartHealth:    100,
		CoinsPerKill:   10,
		InitialEnemies: 1,
	}
}

// SimFromEnv returns simulation configuration with environment variable overrides.
// Enemy and base sizes follow the screen height unless set explicitly.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if w := getEnvFloat("SCREEN_WIDTH", 0); w > 0 {
		cfg.ScreenWidth = w
	}
	if h := getEnvFloat("SCREEN_HEIGHT", 0); h > 0 {
		cfg.ScreenHeight = h
		cfg.EnemySpeed = 0.1 * h
		cfg.EnemySize = 0.025 * h
		cfg.BaseSize = 0.1 * h
	}
	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if s := getEnvFloat("ENEMY_SPEED", 0); s > 0 {
		cfg.EnemySpeed = s
	}
	if hp := getEnvInt("START_HEALTH", 0); hp > 0 {
		cfg.StartHealth = hp
	}
	if ms := getEnvInt("ATTACK_CYCLE_MS", -1); ms >= 0 {
		cfg.AttackCycle = time.Duration(ms) * time.Millisecond
	}
	if ms := getEnvInt("DYING_MS", -1); ms >= 0 {
		cfg.DyingDuration = time.Duration(ms) * time.Millisecond
	}
	if seed := getEnvInt("SIM_SEED", 0); seed != 0 {
		cfg.Seed = int64(seed)
	}

	return cfg
}

// =============================================================================
// NETWORK CONFIGURATION
// =============================================================================

// NetConfig holds the peer link settings.
type NetConfig struct {
	Role              string        // "", "host" or "join"
	PeerAddr          string        // host:port of the hosting peer (join only)
	PeerPath          string        // WebSocket path served by the host
	HeartbeatInterval time.Duration // Ping interval
	ReadTimeout       time.Duration // Peer considered gone after this much silence
	WriteTimeout      time.Duration
	ReconnectDelay    time.Duration // Initial join retry delay (doubles up to MaxReconnect)
	MaxReconnect      time.Duration
}

// DefaultNet returns the default network configuration (single player).
func DefaultNet() NetConfig {
	return NetConfig{
		PeerPath:          "/peer",
		HeartbeatInterval: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2 * time.Second,
		ReconnectDelay:    500 * time.Millisecond,
		MaxReconnect:      10 * time.Second,
	}
}

// NetFromEnv returns network configuration with environment variable overrides.
func NetFromEnv() NetConfig {
	cfg := DefaultNet()

	cfg.Role = strings.ToLower(strings.TrimSpace(os.Getenv("PEER_ROLE")))
	if addr := os.Getenv("PEER_ADDR"); addr != "" {
		cfg.PeerAddr = addr
	}
	if ms := getEnvInt("PEER_HEARTBEAT_MS", 0); ms > 0 {
		cfg.HeartbeatInterval = time.Duration(ms) * time.Millisecond
	}

	return cfg
}

// =============================================================================
// AUDIO CONFIGURATION
// =============================================================================

// AudioConfig holds cue deck settings.
type AudioConfig struct {
	SampleRate int     // Audio sample rate in Hz
	Volume     float64 // Master volume (0.0 to 1.0)
	Enabled    bool    // Whether cues are captured at all (buffers PCM in memory)
	TrackPath  string  // WAV file the cue track is written to on shutdown
	HitPath    string  // Optional OGG files replacing the generated tones
	BreachPath string
	LosePath   string
}

// DefaultAudio returns the default audio configuration.
func DefaultAudio() AudioConfig {
	return AudioConfig{
		SampleRate: 44100,
		Volume:     0.5,
		TrackPath:  "cues.wav",
	}
}

// AudioFromEnv returns audio configuration with environment variable overrides.
func AudioFromEnv() AudioConfig {
	cfg := DefaultAudio()

	if v := getEnvFloat("CUE_VOLUME", -1); v >= 0 {
		cfg.Volume = v
	}
	switch os.Getenv("AUDIO_ENABLED") {
	case "true":
		cfg.Enabled = true
	case "false":
		cfg.Enabled = false
	}
	if p, ok := os.LookupEnv("CUE_TRACK_PATH"); ok {
		cfg.TrackPath = p
	}
	cfg.HitPath = os.Getenv("CUE_HIT_PATH")
	cfg.BreachPath = os.Getenv("CUE_BREACH_PATH")
	cfg.LosePath = os.Getenv("CUE_LOSE_PATH")

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int
	EventLogPath string
	DebugServer  bool
	AdminToken   string // Bearer token for admin routes; empty disables them
	FrameWidth   int    // Size of /api/frame.png
	FrameHeight  int
	FontPath     string // Optional TTF for the frame HUD
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:         3000,
		EventLogPath: "events.jsonl",
		DebugServer:  true,
		FrameWidth:   640,
		FrameHeight:  360,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if path, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.EventLogPath = path
	}
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.DebugServer = false
	}
	cfg.AdminToken = os.Getenv("ADMIN_TOKEN")
	if w := getEnvInt("FRAME_WIDTH", 0); w > 0 {
		cfg.FrameWidth = w
	}
	if h := getEnvInt("FRAME_HEIGHT", 0); h > 0 {
		cfg.FrameHeight = h
	}
	cfg.FontPath = os.Getenv("FRAME_FONT_PATH")

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Sim    SimConfig
	Net    NetConfig
	Audio  AudioConfig
	Server ServerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Sim:    SimFromEnv(),
		Net:    NetFromEnv(),
		Audio:  AudioFromEnv(),
		Server: ServerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
