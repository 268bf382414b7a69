package archivist

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samgozman/fin-buddy/broker"
	"github.com/samgozman/fin-buddy/journalist"
	"github.com/samgozman/fin-buddy/pkg/errlvl"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SymbolSnapshot is the last known state of one symbol. There is exactly one row per symbol,
// the archive keeps no history.
type SymbolSnapshot struct {
	ID        uuid.UUID      `gorm:"primaryKey;type:uuid;not null;" json:"id"`    // ID of the row (UUID)
	Symbol    string         `gorm:"size:16;uniqueIndex;not null;" json:"symbol"` // Ticker symbol, unique
	Provider  string         `gorm:"size:64" json:"provider"`                     // Provider of the quote
	Quote     datatypes.JSON `gorm:"" json:"quote"`                               // broker.Quote or null
	News      datatypes.JSON `gorm:"" json:"news"`                                // journalist.NewsList
	QuoteAt   time.Time      `gorm:"not null" json:"quote_at"`                    // When the quote was cached
	NewsAt    time.Time      `gorm:"not null" json:"news_at"`                     // When the news were cached
	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at,omitempty"`
}

func (*SymbolSnapshot) TableName() string {
	return "snapshots"
}

func (s *SymbolSnapshot) Validate() error {
	if s.Symbol == "" {
		return newError(errlvl.INFO, errSymbolEmpty, nil)
	}

	if len(s.Symbol) > 16 {
		return newError(errlvl.INFO, errSymbolTooLong, nil)
	}

	if len(s.Provider) > 64 {
		return newError(errlvl.INFO, errProviderTooLong, nil)
	}

	return nil
}

func (s *SymbolSnapshot) BeforeCreate(*gorm.DB) error {
	// Create UUID ID.
	s.ID = uuid.New()

	err := s.Validate()
	if err != nil {
		return newError(errlvl.INFO, errRecordValidation, err)
	}

	return nil
}

// newSymbolSnapshot encodes a cache record into a row.
func newSymbolSnapshot(r Record) (*SymbolSnapshot, error) {
	quote, err := json.Marshal(r.Quote)
	if err != nil {
		return nil, newError(errlvl.ERROR, errRecordEncode, err)
	}
	news, err := json.Marshal(r.News.Copy())
	if err != nil {
		return nil, newError(errlvl.ERROR, errRecordEncode, err)
	}

	s := &SymbolSnapshot{
		Symbol:  r.Symbol,
		Quote:   datatypes.JSON(quote),
		News:    datatypes.JSON(news),
		QuoteAt: r.QuoteAt,
		NewsAt:  r.NewsAt,
	}
	if r.Quote != nil {
		s.Provider = r.Quote.Provider
	}

	return s, nil
}

// ToRecord decodes the row back into a cache record.
func (s *SymbolSnapshot) ToRecord() (Record, error) {
	r := Record{
		Symbol:  s.Symbol,
		QuoteAt: s.QuoteAt,
		NewsAt:  s.NewsAt,
	}

	if len(s.Quote) > 0 {
		var q *broker.Quote
		if err := json.Unmarshal(s.Quote, &q); err != nil {
			return Record{}, newError(errlvl.WARN, errRecordDecode, err)
		}
		r.Quote = q
	}
	if len(s.News) > 0 {
		var news journalist.NewsList
		if err := json.Unmarshal(s.News, &news); err != nil {
			return Record{}, newError(errlvl.WARN, errRecordDecode, err)
		}
		r.News = news
	}

	return r, nil
}

// PostgresStore keeps the snapshot in the "snapshots" table.
type PostgresStore struct {
	Conn *gorm.DB
}

// NewPostgresStore connects to Postgres with the given DSN and migrates the schema.
//
// DSN is a string in the format of: "user=gorm password=gorm dbname=gorm port=9920 sslmode=disable"
func NewPostgresStore(ctx context.Context, dsn string, log *slog.Logger) (*PostgresStore, error) {
	conn, err := connectToPG(ctx, dsn, log)
	if err != nil {
		return nil, newError(errlvl.ERROR, errFailedConnection, err)
	}

	// Migrate the schema automatically, the table is a single upserted row per symbol.
	err = conn.AutoMigrate(&SymbolSnapshot{})
	if err != nil {
		return nil, newError(errlvl.ERROR, errFailedMigration, err)
	}

	return &PostgresStore{Conn: conn}, nil
}

func (db *PostgresStore) Name() string {
	return "postgres"
}

// Save upserts one row per record, keyed by symbol.
func (db *PostgresStore) Save(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]*SymbolSnapshot, 0, len(records))
	for _, r := range records {
		row, err := newSymbolSnapshot(r)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	res := db.Conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"provider", "quote", "news", "quote_at", "news_at", "updated_at"}),
	}).Create(&rows)
	if res.Error != nil {
		return newError(errlvl.ERROR, errSnapshotSave, res.Error)
	}

	return nil
}

// Load returns every stored record.
func (db *PostgresStore) Load(ctx context.Context) ([]Record, error) {
	var rows []*SymbolSnapshot
	res := db.Conn.WithContext(ctx).Find(&rows)
	if res.Error != nil {
		return nil, newError(errlvl.ERROR, errSnapshotLoad, res.Error)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		r, err := row.ToRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, nil
}

func (db *PostgresStore) Close() error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
