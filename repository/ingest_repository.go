// Package repository persists the optional MySQL ingest ledger.
package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IngestedTrack is one successfully indexed song. One row per song id;
// re-ingesting replaces the row the same way the index replaces the record.
type IngestedTrack struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	SongID      string `gorm:"uniqueIndex;size:64;not null"`
	SongName    string `gorm:"size:512"`
	ArtistName  string `gorm:"size:512"`
	AlbumName   string `gorm:"size:512"`
	ReleaseDate string `gorm:"size:64"`
	Genres      string `gorm:"size:1024"`
	ObjectKey   string `gorm:"size:128"`
	RunID       string `gorm:"size:64;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IngestRun records the summary of one orchestrator invocation.
type IngestRun struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	RunID     string `gorm:"uniqueIndex;size:64;not null"`
	Kind      string `gorm:"size:16"` // playlist or song
	TargetID  string `gorm:"size:128"`
	Total     int
	Processed int
	Skipped   int
	Failed    int
	CreatedAt time.Time
}

// IngestRepository is the ledger interface the orchestrator writes
// through. A nil repository disables the ledger entirely.
type IngestRepository interface {
	RecordTrack(track *IngestedTrack) error
	RecordRun(run *IngestRun) error
}

type mysqlIngestRepository struct {
	db *gorm.DB
}

// NewMySQLIngestRepository migrates the ledger tables and returns the repository.
func NewMySQLIngestRepository(db *gorm.DB) (IngestRepository, error) {
	if err := db.AutoMigrate(&IngestedTrack{}, &IngestRun{}); err != nil {
		return nil, err
	}
	return &mysqlIngestRepository{db: db}, nil
}

// RecordTrack upserts the ledger row for a song.
func (r *mysqlIngestRepository) RecordTrack(track *IngestedTrack) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "song_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"song_name", "artist_name", "album_name", "release_date",
			"genres", "object_key", "run_id", "updated_at",
		}),
	}).Create(track).Error
}

// RecordRun stores one run summary.
func (r *mysqlIngestRepository) RecordRun(run *IngestRun) error {
	return r.db.Create(run).Error
}
