package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PGConfig struct {
	DSN string `envconfig:"DSN" required:"true"`
}

type transcriptRecord struct {
	bun.BaseModel `bun:"table:call_transcripts,alias:ct"`

	CallSID   string          `bun:"call_sid,pk"`
	Status    string          `bun:"status,notnull"`
	Payload   json.RawMessage `bun:"payload,type:jsonb,notnull"`
	UpdatedAt time.Time       `bun:"updated_at,notnull"`
}

// PGStore keeps snapshots in Postgres, one row per call, whole snapshot as
// a JSONB payload. Drop-in alternative to FileStore for deployments where
// transcripts outlive the host.
type PGStore struct {
	db *bun.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(cfg PGConfig) (*PGStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return &PGStore{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// Migrate creates the transcripts table if missing. Call once at startup.
func (s *PGStore) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*transcriptRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create call_transcripts table: %w", err)
	}
	return nil
}

func (s *PGStore) Save(ctx context.Context, snap *Snapshot) error {
	if snap == nil || strings.TrimSpace(snap.CallSID) == "" {
		return fmt.Errorf("snapshot needs a call sid")
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	rec := &transcriptRecord{
		CallSID:   snap.CallSID,
		Status:    snap.Status,
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}

	_, err = s.db.NewInsert().
		Model(rec).
		On("CONFLICT (call_sid) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert transcript %s: %w", snap.CallSID, err)
	}
	return nil
}

func (s *PGStore) Load(ctx context.Context, callSID string) (*Snapshot, error) {
	rec := new(transcriptRecord)
	err := s.db.NewSelect().
		Model(rec).
		Where("call_sid = ?", callSID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, callSID)
		}
		return nil, fmt.Errorf("select transcript %s: %w", callSID, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(rec.Payload, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal transcript %s: %w", callSID, err)
	}
	return &snap, nil
}

func (s *PGStore) Close() error {
	return s.db.Close()
}
