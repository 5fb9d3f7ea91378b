package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pbaille/superlinks/internal/overlay"
)

//go:embed schema.sql
var schema string

// Slot names one independently persisted overlay collection
type Slot string

const (
	SlotPins      Slot = "pins"
	SlotFavorites Slot = "favorites"
	SlotDeletions Slot = "deletions"
	SlotEdits     Slot = "edits"
	SlotFilter    Slot = "filter"
)

// Slots lists every slot in load order.
var Slots = []Slot{SlotPins, SlotFavorites, SlotDeletions, SlotEdits, SlotFilter}

// SlotError reports a slot that could not be read and was reset to its default
type SlotError struct {
	Slot Slot
	Err  error
}

// Error names the slot and the decode failure.
func (e SlotError) Error() string {
	return fmt.Sprintf("slot %s: %v", e.Slot, e.Err)
}

// Unwrap returns the decode failure.
func (e SlotError) Unwrap() error { return e.Err }

// JournalEntry is one recorded slot write
type JournalEntry struct {
	ID        string    `json:"id"`
	Slot      Slot      `json:"slot"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists the overlay as JSON slots in SQLite
type Store struct {
	db   *sql.DB
	path string
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps read-after-write trivially consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Get returns the raw JSON of a slot, or nil when it was never written.
func (s *Store) Get(ctx context.Context, slot Slot) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM slots WHERE name = ?", string(slot)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get slot %s: %w", slot, err)
	}
	return []byte(value), nil
}

// PutRaw stores raw bytes in a slot without validation.
func (s *Store) PutRaw(ctx context.Context, slot Slot, raw []byte, action string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO slots (name, value, updated_at) VALUES (?, ?, ?)",
		string(slot), string(raw), now,
	); err != nil {
		return fmt.Errorf("write slot %s: %w", slot, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO journal (id, slot, action, created_at) VALUES (?, ?, ?, ?)",
		uuid.New().String(), string(slot), action, now,
	); err != nil {
		return fmt.Errorf("journal slot %s: %w", slot, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit slot %s: %w", slot, err)
	}
	return nil
}

// Put serializes value as JSON into a slot.
func (s *Store) Put(ctx context.Context, slot Slot, value any, action string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal slot %s: %w", slot, err)
	}
	return s.PutRaw(ctx, slot, raw, action)
}

// LoadOverlay reads every slot. A slot that cannot be read or decoded falls
// back to its default and is reported; the other slots are unaffected.
func (s *Store) LoadOverlay(ctx context.Context) (overlay.Overlay, []SlotError) {
	var parts overlay.Parts
	var problems []SlotError

	for _, slot := range Slots {
		raw, err := s.Get(ctx, slot)
		if err == nil && raw != nil {
			err = decodeSlot(slot, raw, &parts)
		}
		if err != nil {
			problems = append(problems, SlotError{Slot: slot, Err: err})
		}
	}
	return overlay.New(parts), problems
}

func decodeSlot(slot Slot, raw []byte, parts *overlay.Parts) error {
	switch slot {
	case SlotPins:
		return decodeInto(raw, &parts.Pins)
	case SlotFavorites:
		return decodeInto(raw, &parts.Favorites)
	case SlotDeletions:
		return decodeInto(raw, &parts.Deletions)
	case SlotEdits:
		return decodeInto(raw, &parts.Edits)
	case SlotFilter:
		return decodeInto(raw, &parts.Filter)
	default:
		return fmt.Errorf("unknown slot %q", slot)
	}
}

// decodeInto leaves dst untouched when raw does not parse.
func decodeInto[T any](raw []byte, dst *T) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = v
	return nil
}

// SaveSlot writes one slot of ov.
func (s *Store) SaveSlot(ctx context.Context, ov overlay.Overlay, slot Slot, action string) error {
	var value any
	switch slot {
	case SlotPins:
		value = ov.Pins()
	case SlotFavorites:
		value = ov.Favorites()
	case SlotDeletions:
		value = ov.Deletions()
	case SlotEdits:
		value = ov.AllEdits()
	case SlotFilter:
		value = ov.Filter()
	default:
		return fmt.Errorf("unknown slot %q", slot)
	}
	return s.Put(ctx, slot, value, action)
}

// Journal returns the most recent slot writes, newest first
func (s *Store) Journal(ctx context.Context, limit int) ([]JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, slot, action, created_at FROM journal ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var slot string
		if err := rows.Scan(&e.ID, &slot, &e.Action, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		e.Slot = Slot(slot)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
