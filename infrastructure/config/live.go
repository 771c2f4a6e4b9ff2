package config

import (
	"sync/atomic"

	domainconfig "github.com/imagereader/imagereader-mcp/domain/config"
	"github.com/imagereader/imagereader-mcp/domain/image"
)

// Live holds the current configuration. Readers get an immutable snapshot,
// so a reload never affects a request already in flight.
type Live struct {
	current atomic.Pointer[domainconfig.ServerConfig]
}

// NewLive creates a Live holding cfg.
func NewLive(cfg *domainconfig.ServerConfig) *Live {
	l := &Live{}
	l.Store(cfg)
	return l
}

// Load returns the current snapshot.
func (l *Live) Load() *domainconfig.ServerConfig {
	return l.current.Load()
}

// Store publishes a new snapshot.
func (l *Live) Store(cfg *domainconfig.ServerConfig) {
	c := *cfg
	l.current.Store(&c)
}

// Compaction returns the current compaction budget.
func (l *Live) Compaction() image.CompactionConfig {
	return l.current.Load().Compaction
}

// MaxInputBytes returns the current input size limit.
func (l *Live) MaxInputBytes() int64 {
	return l.current.Load().Limits.MaxInputBytes
}

// MaxInputPixels returns the current pixel limit checked before decoding.
func (l *Live) MaxInputPixels() int64 {
	return l.current.Load().Limits.MaxInputPixels
}
