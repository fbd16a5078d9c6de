// Package cache is a generic object cache used to avoid re-asking the game
// API for the same per-tier metadata (tier type, canonical tier)
// repeatedly within one process lifetime.
package cache

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tiergraph/solver/config"
)

type cache struct {
	sync.Mutex
	objects map[string]interface{}
}

type loadFunc func(cfg *config.SolverConfig, key string) (interface{}, error)

// GlobalObjectCache is the process-wide tier-metadata cache.
var GlobalObjectCache *cache

func (c *cache) load(cfg *config.SolverConfig, key string, loadFunc loadFunc) error {
	log.Debug().Str("key", key).Msg("loading into cache")

	obj, err := loadFunc(cfg, key)
	if err != nil {
		return err
	}
	c.objects[key] = obj

	return nil
}

func (c *cache) get(cfg *config.SolverConfig, key string, loadFunc loadFunc) (interface{}, error) {
	var ok bool
	var obj interface{}
	c.Lock()
	defer c.Unlock()
	if obj, ok = c.objects[key]; !ok {
		if err := c.load(cfg, key, loadFunc); err != nil {
			return nil, err
		}
		return c.objects[key], nil
	}
	log.Debug().Str("key", key).Msg("getting obj from cache")

	return obj, nil
}

// CreateGlobalObjectCache (re)initializes the process-wide cache, discarding
// anything previously stored.
func CreateGlobalObjectCache() {
	GlobalObjectCache = &cache{objects: make(map[string]interface{})}
}

// Load returns the cached object under name, invoking loadFunc to populate
// it on first access.
func Load(cfg *config.SolverConfig, name string, loadFunc loadFunc) (interface{}, error) {
	if GlobalObjectCache == nil {
		CreateGlobalObjectCache()
	}
	return GlobalObjectCache.get(cfg, name, loadFunc)
}
