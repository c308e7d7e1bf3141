// Package wire provides dependency injection for the warden application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/example/warden/internal/adapters/filesystem"
	"github.com/example/warden/internal/adapters/sqlite"
	"github.com/example/warden/internal/adapters/statefile"
	"github.com/example/warden/internal/app"
	"github.com/example/warden/internal/config"
	"github.com/example/warden/internal/db"
	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/ports/secondary"
)

var (
	cfg             *config.Config
	stateDir        string
	gearRepo        secondary.GearStateRepository
	junctionRepo    secondary.JunctionStateRepository
	journal         secondary.TurnJournal
	junctionService primary.JunctionService
	gearService     primary.GearService
	dispatchService primary.DispatchService
	once            sync.Once
)

// Config returns the loaded configuration (defaults when none on disk).
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// StateDir returns the resolved per-project state directory.
func StateDir() string {
	once.Do(initServices)
	return stateDir
}

// JunctionService returns the singleton JunctionService instance.
func JunctionService() primary.JunctionService {
	once.Do(initServices)
	return junctionService
}

// GearService returns the singleton GearService instance.
func GearService() primary.GearService {
	once.Do(initServices)
	return gearService
}

// DispatchService returns the singleton DispatchService instance.
func DispatchService() primary.DispatchService {
	once.Do(initServices)
	return dispatchService
}

// Journal returns the turn journal, or nil when journaling is disabled
// or the journal database could not be opened.
func Journal() secondary.TurnJournal {
	once.Do(initServices)
	return journal
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to get working directory: %v", err)
	}
	cfg = config.LoadOrDefault(cwd)
	stateDir = config.StateDir(cwd)

	lockTimeout := time.Duration(cfg.LockTimeoutMS) * time.Millisecond

	// Repository adapters (secondary ports) - lock-protected state files
	gearRepo = statefile.NewGearRepository(stateDir, lockTimeout)
	junctionRepo = statefile.NewJunctionRepository(stateDir, lockTimeout)

	// The journal is best-effort: an unopenable database degrades to
	// uninstrumented turns, never a dead loop.
	if !cfg.JournalDisabled {
		database, err := db.Open(stateDir)
		if err != nil {
			log.Printf("warning: journal unavailable: %v", err)
		} else {
			journal = sqlite.NewJournalRepository(database)
		}
	}

	// Collaborator adapters - file-drop contracts under the state dir
	plan := filesystem.NewPlanProvider(stateDir)
	drops := filesystem.NewDropCollaborators(stateDir)

	// Services (primary ports implementation)
	junctionService = app.NewJunctionService(junctionRepo, cfg.SuppressionMinutes)
	gearService = app.NewGearService(gearRepo, plan, drops, drops, drops, drops, cfg.PatrolIdlePasses)
	dispatchService = app.NewDispatchService(gearService, junctionService, gearRepo, journal, cfg.MaxSessionIterations, cfg.StuckThreshold)
}
