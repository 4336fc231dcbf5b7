// Package database is the archive store: a record of every item and collection the engine has
// resolved, so re-resolutions can be compared against what was seen before.
package database

import (
	"database/sql"
	"embed"
	"encoding/json"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	media_archiver "github.com/alanbriolat/media-archiver"
	"github.com/alanbriolat/media-archiver/format"
	"github.com/alanbriolat/media-archiver/generic"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// An Item is one archived resolution of a media item. Formats holds the ranked candidate list as
// JSON.
type Item struct {
	ID           string         `db:"id"`
	Provider     string         `db:"provider"`
	SourceID     string         `db:"source_id"`
	CollectionID sql.NullString `db:"collection_id"`
	Title        string         `db:"title"`
	Uploader     string         `db:"uploader"`
	Description  string         `db:"description"`
	Thumbnail    string         `db:"thumbnail"`
	UploadDate   string         `db:"upload_date"`
	Duration     int            `db:"duration"`
	Formats      string         `db:"formats"`
	ResolvedAt   time.Time      `db:"resolved_at"`
}

// NewItem converts a resolved record for archiving.
func NewItem(providerName string, record *media_archiver.ItemRecord) (*Item, error) {
	formats, err := json.Marshal(record.Formats)
	if err != nil {
		return nil, err
	}
	return &Item{
		ID:         generic.Unwrap(uuid.NewRandom()).String(),
		Provider:   providerName,
		SourceID:   record.ID,
		Title:       record.Title,
		Uploader:    record.Uploader,
		Description: record.Description,
		Thumbnail:   record.Thumbnail,
		UploadDate:  record.UploadDate,
		Duration:    record.Duration,
		Formats:     string(formats),
		ResolvedAt:  time.Now().UTC(),
	}, nil
}

// Record rebuilds the resolved record from the archived row.
func (i *Item) Record() (*media_archiver.ItemRecord, error) {
	var formats []format.Candidate
	if err := json.Unmarshal([]byte(i.Formats), &formats); err != nil {
		return nil, err
	}
	return &media_archiver.ItemRecord{
		ID:          i.SourceID,
		Title:       i.Title,
		Uploader:    i.Uploader,
		Description: i.Description,
		Thumbnail:   i.Thumbnail,
		UploadDate:  i.UploadDate,
		Duration:    i.Duration,
		Formats:     formats,
	}, nil
}

// A Collection is one archived resolution of a set or publisher enumeration.
type Collection struct {
	ID         string    `db:"id"`
	Provider   string    `db:"provider"`
	SourceID   string    `db:"source_id"`
	Title      string    `db:"title"`
	ResolvedAt time.Time `db:"resolved_at"`
}

type Database struct {
	db *sqlx.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, err
	}
	return &Database{db}, nil
}

func (d *Database) Migrate() error {
	log := zap.S().Named("database")
	log.Info("running database migrations")
	fs, err := iofs.New(embedMigrations, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlite3.WithInstance(d.db.DB, &sqlite3.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", fs, "sqlite3", driver)
	if err != nil {
		return err
	}
	err = m.Up()
	switch err {
	case nil:
		log.Info("database migration complete")
	case migrate.ErrNoChange:
		log.Info("no database migration required")
	default:
		return err
	}
	return nil
}

func (d *Database) Close() {
	_ = d.db.Close()
}

// GetItemBySource returns (nil, nil) if the error is only that no such row exists.
func (d *Database) GetItemBySource(provider string, sourceID string) (*Item, error) {
	i := Item{}
	if err := d.db.Get(&i, `SELECT * FROM item WHERE provider = ? AND source_id = ? LIMIT 1`, provider, sourceID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		} else {
			return nil, err
		}
	} else {
		return &i, nil
	}
}

// ListItems returns all archived items, most recently resolved first.
func (d *Database) ListItems() ([]Item, error) {
	var items []Item
	if err := d.db.Select(&items, `SELECT * FROM item ORDER BY resolved_at DESC`); err != nil {
		return nil, err
	}
	return items, nil
}

// ListCollectionItems returns the items archived under a collection, in insertion order.
func (d *Database) ListCollectionItems(collectionID string) ([]Item, error) {
	var items []Item
	if err := d.db.Select(&items, `SELECT * FROM item WHERE collection_id = ? ORDER BY rowid`, collectionID); err != nil {
		return nil, err
	}
	return items, nil
}

// InsertItem adds an archived item row.
func (d *Database) InsertItem(i *Item) error {
	_, err := d.db.NamedExec(
		`INSERT INTO item (id, provider, source_id, collection_id, title, uploader, description, thumbnail, upload_date, duration, formats, resolved_at)
		VALUES (:id, :provider, :source_id, :collection_id, :title, :uploader, :description, :thumbnail, :upload_date, :duration, :formats, :resolved_at)`, i)
	return err
}

// ReplaceItem overwrites any previous resolution of the same source with the new row.
func (d *Database) ReplaceItem(i *Item) error {
	if _, err := d.db.Exec(`DELETE FROM item WHERE provider = ? AND source_id = ?`, i.Provider, i.SourceID); err != nil {
		return err
	}
	return d.InsertItem(i)
}

// GetCollectionBySource returns (nil, nil) if the error is only that no such row exists.
func (d *Database) GetCollectionBySource(provider string, sourceID string) (*Collection, error) {
	c := Collection{}
	if err := d.db.Get(&c, `SELECT * FROM collection WHERE provider = ? AND source_id = ? LIMIT 1`, provider, sourceID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		} else {
			return nil, err
		}
	} else {
		return &c, nil
	}
}

// InsertCollection archives a collection and all of its entries.
func (d *Database) InsertCollection(provider string, record *media_archiver.CollectionRecord) (*Collection, error) {
	c := &Collection{
		ID:         generic.Unwrap(uuid.NewRandom()).String(),
		Provider:   provider,
		SourceID:   record.ID,
		Title:      record.Title,
		ResolvedAt: time.Now().UTC(),
	}
	if _, err := d.db.NamedExec(
		`INSERT INTO collection (id, provider, source_id, title, resolved_at)
		VALUES (:id, :provider, :source_id, :title, :resolved_at)`, c); err != nil {
		return nil, err
	}
	for _, entry := range record.Entries {
		item, err := NewItem(provider, entry)
		if err != nil {
			return nil, err
		}
		item.CollectionID = sql.NullString{String: c.ID, Valid: true}
		if err := d.InsertItem(item); err != nil {
			return nil, err
		}
	}
	return c, nil
}
