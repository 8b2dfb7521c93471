package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres keeps the whole document in a single jsonb row. Good enough for
// the best-effort checkpointing contract; no per-entity schema to migrate.
type Postgres struct {
	db *gorm.DB
}

type document struct {
	ID        uint   `gorm:"primaryKey"`
	Data      []byte `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

func (document) TableName() string { return "quizroom_state" }

func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Load(ctx context.Context) (Snapshot, error) {
	var doc document
	err := p.db.WithContext(ctx).First(&doc, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewSnapshot(), nil
	}
	if err != nil {
		return Snapshot{}, err
	}

	snap := NewSnapshot()
	if err := json.Unmarshal(doc.Data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (p *Postgres) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	doc := document{ID: 1, Data: data}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&doc).Error
}
