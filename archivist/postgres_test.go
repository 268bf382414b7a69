package archivist

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/samgozman/fin-buddy/pkg/errlvl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestSymbolSnapshot_Validate(t *testing.T) {
	tests := []struct {
		name    string
		row     SymbolSnapshot
		wantErr error
	}{
		{
			name: "valid",
			row:  SymbolSnapshot{Symbol: "AAPL", Provider: "yahoo"},
		},
		{
			name:    "empty symbol",
			row:     SymbolSnapshot{},
			wantErr: errSymbolEmpty,
		},
		{
			name:    "symbol too long",
			row:     SymbolSnapshot{Symbol: strings.Repeat("A", 17)},
			wantErr: errSymbolTooLong,
		},
		{
			name:    "provider too long",
			row:     SymbolSnapshot{Symbol: "AAPL", Provider: strings.Repeat("p", 65)},
			wantErr: errProviderTooLong,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.row.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, errlvl.ErrInfo)
		})
	}
}

func TestSymbolSnapshot_BeforeCreate(t *testing.T) {
	row := &SymbolSnapshot{Symbol: "AAPL"}
	require.NoError(t, row.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, row.ID)

	bad := &SymbolSnapshot{}
	err := bad.BeforeCreate(nil)
	assert.ErrorIs(t, err, errRecordValidation)
	assert.ErrorIs(t, err, errSymbolEmpty)
}

func TestSymbolSnapshot_roundTrip(t *testing.T) {
	q := testQuote("AAPL")
	tests := []struct {
		name   string
		record Record
	}{
		{
			name: "quote and news",
			record: Record{
				Symbol:  "AAPL",
				Quote:   &q,
				News:    testNews("a", "b"),
				QuoteAt: t0,
				NewsAt:  t0,
			},
		},
		{
			name: "news only",
			record: Record{
				Symbol: "TSLA",
				News:   testNews("c"),
				NewsAt: t0,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := newSymbolSnapshot(tt.record)
			require.NoError(t, err)
			if tt.record.Quote != nil {
				assert.Equal(t, tt.record.Quote.Provider, row.Provider)
			}

			got, err := row.ToRecord()
			require.NoError(t, err)
			assert.Equal(t, tt.record, got)
		})
	}
}

func TestSymbolSnapshot_ToRecord_corrupted(t *testing.T) {
	row := &SymbolSnapshot{Symbol: "AAPL", Quote: datatypes.JSON(`{"price":`)}

	_, err := row.ToRecord()
	assert.ErrorIs(t, err, errRecordDecode)
}

func TestSymbolSnapshot_TableName(t *testing.T) {
	assert.Equal(t, "snapshots", (&SymbolSnapshot{}).TableName())
}
