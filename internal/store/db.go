package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"mystopwatch/backend/internal/stopwatch"
)

// ErrNoSnapshot is returned by LoadState when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no stopwatch state stored")

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&StopwatchState{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveState upserts the current stopwatch state.
func (d *Database) SaveState(state stopwatch.State) error {
	if d == nil {
		return errors.New("database is nil")
	}
	if state == nil {
		return errors.New("state is nil")
	}
	row := ModelFromState(state)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "start_ms", "elapsed_ms", "updated_at"}),
	}).Create(&row).Error
}

// LoadState returns the last saved state, or ErrNoSnapshot.
func (d *Database) LoadState() (stopwatch.State, error) {
	if d == nil {
		return nil, errors.New("database is nil")
	}
	var row StopwatchState
	if err := d.gorm.First(&row, stateRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("load stopwatch state: %w", err)
	}
	return StateFromModel(row), nil
}
