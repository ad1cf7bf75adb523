package store

import (
	"context"
	"time"

	"github.com/joss/cellpilot/internal/logging"
)

// Open returns the sqlite store for dataDir, falling back to the
// in-process store when it cannot be opened or pinged. Fallback loses
// durability across restarts; the planner keeps working either way.
func Open(dataDir string) Store {
	log := logging.New("store")

	s, err := NewSQLite(dataDir)
	if err != nil {
		log.Warn("sqlite_unavailable_using_memory", map[string]interface{}{"dir": dataDir}, err)
		return NewMemory()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		log.Warn("sqlite_ping_failed_using_memory", map[string]interface{}{"dir": dataDir}, err)
		s.Close()
		return NewMemory()
	}

	return s
}
