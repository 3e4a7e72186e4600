package config

// EmbeddedOMDBKey is injected at build time via ldflags and used when no
// API key is configured through the environment or config file.
//
// Build with:
//   go build -ldflags "-X 'github.com/moviefinder/moviefinder/internal/config.EmbeddedOMDBKey=xxx'"
var EmbeddedOMDBKey string

// Version is the build version, also set through ldflags.
var Version = "dev"
