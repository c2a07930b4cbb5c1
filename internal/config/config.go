package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var modelsYAML []byte

type Config struct {
	Vision   VisionConfig
	Camera   CameraConfig
	Matcher  MatcherConfig
	Gallery  GalleryConfig
	Database DatabaseConfig
	OpenAI   OpenAIConfig
	Gemini   GeminiConfig
	Models   ModelManifest
}

type VisionConfig struct {
	Sources       []string      // ordered vision service base URLs, first one is preferred
	SourceTimeout time.Duration // per-attempt timeout for loading a model tier from one source
	MaxImageSize  int           // frames larger than this (longest edge, px) are downscaled before detection
}

type CameraConfig struct {
	URL           string        // snapshot endpoint or local directory with frames
	FrameInterval time.Duration // how often the watch loop grabs a frame
}

type MatcherConfig struct {
	Threshold      float64       // Euclidean distance below which a face counts as identified
	DebounceWindow time.Duration // same-person announcements inside this window are suppressed
}

type GalleryConfig struct {
	Path string // JSON gallery file used when no DATABASE_URL is set
}

type DatabaseConfig struct {
	URL string // PostgreSQL connection URL (optional, falls back to the JSON gallery)
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

// ModelManifest names the model files each vision source must serve,
// split by tier. The critical tier blocks recognition until loaded,
// the optional tier only enables demographics.
type ModelManifest struct {
	Tiers TierManifest `yaml:"tiers"`
}

type TierManifest struct {
	Critical []string `yaml:"critical"`
	Optional []string `yaml:"optional"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envList reads a comma-separated environment variable.
// Empty items are dropped; returns the default list when nothing remains.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultVal
	}
	return items
}

func Load() *Config {
	var manifest ModelManifest
	if err := yaml.Unmarshal(modelsYAML, &manifest); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded models.yaml: " + err.Error())
	}

	return &Config{
		Vision: VisionConfig{
			Sources:       envList("FACEGATE_MODEL_SOURCES", []string{"http://localhost:8000"}),
			SourceTimeout: time.Duration(envInt("FACEGATE_SOURCE_TIMEOUT_MS", 60000)) * time.Millisecond,
			MaxImageSize:  envInt("FACEGATE_MAX_IMAGE_SIZE", 1920),
		},
		Camera: CameraConfig{
			URL:           os.Getenv("FACEGATE_CAMERA_URL"),
			FrameInterval: time.Duration(envInt("FACEGATE_FRAME_INTERVAL_MS", 500)) * time.Millisecond,
		},
		Matcher: MatcherConfig{
			Threshold:      envFloat("FACEGATE_MATCH_THRESHOLD", 0.55),
			DebounceWindow: time.Duration(envInt("FACEGATE_DEBOUNCE_MS", 1200)) * time.Millisecond,
		},
		Gallery: GalleryConfig{
			Path: envDefault("FACEGATE_GALLERY_PATH", "gallery.json"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Models: manifest,
	}
}

func envDefault(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}
