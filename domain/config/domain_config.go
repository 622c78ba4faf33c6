package config

import (
	"errors"
	"time"
)

// DomainConfig holds the configurable editing rules
type DomainConfig struct {
	// Text constraints
	MaxTextLength   int
	MaxPasteLines   int
	MaxOutlineDepth int

	// Document constraints
	MaxBlocksPerDocument int
	DefaultRootText      string

	// Invariant handling. When strict, a failed consistency check rejects
	// the edit with an error; otherwise the last good graph is kept.
	StrictInvariants bool

	// Persistence
	SaveTimeout time.Duration

	// Feature flags
	EnableTransclusion bool
	EnableGuideStatus  bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Text constraints
		MaxTextLength:   20000,
		MaxPasteLines:   1000,
		MaxOutlineDepth: 256,

		// Document constraints
		MaxBlocksPerDocument: 50000,
		DefaultRootText:      "",

		StrictInvariants: false,

		SaveTimeout: 5 * time.Second,

		// Feature flags
		EnableTransclusion: true,
		EnableGuideStatus:  true,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Tighter limits for production
	config.MaxTextLength = 10000
	config.MaxPasteLines = 500

	// Keep the last good graph instead of failing the request
	config.StrictInvariants = false

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Composition bugs should fail loudly while developing
	config.StrictInvariants = true
	config.MaxPasteLines = 10000

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development", "test":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MaxTextLength <= 0 {
		return errors.New("max text length must be positive")
	}
	if c.MaxPasteLines <= 0 {
		return errors.New("max paste lines must be positive")
	}
	if c.MaxOutlineDepth <= 0 {
		return errors.New("max outline depth must be positive")
	}
	if c.SaveTimeout <= 0 {
		return errors.New("save timeout must be positive")
	}
	return nil
}
