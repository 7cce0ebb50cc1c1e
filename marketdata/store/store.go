// Package store persists quote snapshots in PostgreSQL and serves them
// back as a marketdata.QuoteSource.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/meenmo/curvelib/credit"
	"github.com/meenmo/curvelib/marketdata"
)

const dateLayout = "2006-01-02"

const (
	kindDeposit = "deposit"
	kindSwap    = "swap"
)

// Store reads and writes quote snapshots in a PostgreSQL database.
// Saving a set replaces whatever was stored under its key, so the store
// always holds at most one snapshot per date and currency or legal
// entity.
type Store struct {
	db *sql.DB
}

// Open connects to the database at dsn and creates the quote tables if
// they do not exist yet.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: ping: %w", err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing connection. The caller keeps ownership of
// db and is responsible for the schema.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS discount_quotes (
			quote_date date             NOT NULL,
			currency   text             NOT NULL,
			kind       text             NOT NULL,
			ord        integer          NOT NULL,
			label      text             NOT NULL,
			tenor      text             NOT NULL,
			rate       double precision NOT NULL,
			PRIMARY KEY (quote_date, currency, kind, ord)
		)`,
		`CREATE TABLE IF NOT EXISTS credit_quotes (
			quote_date   date             NOT NULL,
			legal_entity text             NOT NULL,
			currency     text             NOT NULL,
			convention   text             NOT NULL,
			ord          integer          NOT NULL,
			label        text             NOT NULL,
			tenor        text             NOT NULL,
			quote_value  double precision NOT NULL,
			PRIMARY KEY (quote_date, legal_entity, ord)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensureSchema: %w", err)
		}
	}
	return nil
}

// SaveDiscount replaces the stored snapshot for set's date and currency.
func (s *Store) SaveDiscount(set marketdata.DiscountQuoteSet) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("SaveDiscount: %w", err)
	}
	defer tx.Rollback()

	day := set.Date.Format(dateLayout)
	if _, err := tx.Exec(
		`DELETE FROM discount_quotes WHERE quote_date = $1 AND currency = $2`,
		day, set.Currency,
	); err != nil {
		return fmt.Errorf("SaveDiscount: %w", err)
	}
	const insert = `INSERT INTO discount_quotes
		(quote_date, currency, kind, ord, label, tenor, rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i, q := range set.Deposits {
		if _, err := tx.Exec(insert, day, set.Currency, kindDeposit, i, q.Label, q.Tenor, q.Rate); err != nil {
			return fmt.Errorf("SaveDiscount: %w", err)
		}
	}
	for i, q := range set.Swaps {
		if _, err := tx.Exec(insert, day, set.Currency, kindSwap, i, q.Label, q.Tenor, q.Rate); err != nil {
			return fmt.Errorf("SaveDiscount: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("SaveDiscount: %w", err)
	}
	return nil
}

// SaveCredit replaces the stored snapshot for set's date and legal
// entity.
func (s *Store) SaveCredit(set marketdata.CreditQuoteSet) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("SaveCredit: %w", err)
	}
	defer tx.Rollback()

	day := set.Date.Format(dateLayout)
	if _, err := tx.Exec(
		`DELETE FROM credit_quotes WHERE quote_date = $1 AND legal_entity = $2`,
		day, set.LegalEntityID,
	); err != nil {
		return fmt.Errorf("SaveCredit: %w", err)
	}
	const insert = `INSERT INTO credit_quotes
		(quote_date, legal_entity, currency, convention, ord, label, tenor, quote_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i, q := range set.Quotes {
		if _, err := tx.Exec(insert, day, set.LegalEntityID, set.Currency, string(set.Convention), i, q.Label, q.Tenor, q.Value); err != nil {
			return fmt.Errorf("SaveCredit: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("SaveCredit: %w", err)
	}
	return nil
}

// DiscountQuotes loads the snapshot stored for date and currency.
func (s *Store) DiscountQuotes(date time.Time, currency string) (marketdata.DiscountQuoteSet, error) {
	rows, err := s.db.Query(`
		SELECT kind, label, tenor, rate
		FROM discount_quotes
		WHERE quote_date = $1 AND currency = $2
		ORDER BY kind, ord`,
		date.Format(dateLayout), currency)
	if err != nil {
		return marketdata.DiscountQuoteSet{}, fmt.Errorf("DiscountQuotes: %w", err)
	}
	defer rows.Close()

	set := marketdata.DiscountQuoteSet{Date: date, Currency: currency}
	for rows.Next() {
		var kind, label, tenor string
		var rate float64
		if err := rows.Scan(&kind, &label, &tenor, &rate); err != nil {
			return marketdata.DiscountQuoteSet{}, fmt.Errorf("DiscountQuotes: %w", err)
		}
		switch kind {
		case kindDeposit:
			set.Deposits = append(set.Deposits, marketdata.DepositQuote{Label: label, Tenor: tenor, Rate: rate})
		case kindSwap:
			set.Swaps = append(set.Swaps, marketdata.SwapQuote{Label: label, Tenor: tenor, Rate: rate})
		default:
			return marketdata.DiscountQuoteSet{}, fmt.Errorf("DiscountQuotes: unknown kind %q", kind)
		}
	}
	if err := rows.Err(); err != nil {
		return marketdata.DiscountQuoteSet{}, fmt.Errorf("DiscountQuotes: %w", err)
	}
	if len(set.Deposits) == 0 && len(set.Swaps) == 0 {
		return marketdata.DiscountQuoteSet{}, fmt.Errorf("DiscountQuotes: %s %s: %w",
			date.Format(dateLayout), currency, marketdata.ErrNoQuotes)
	}
	return set, nil
}

// CreditQuotes loads the snapshot stored for date and legal entity.
func (s *Store) CreditQuotes(date time.Time, legalEntityID string) (marketdata.CreditQuoteSet, error) {
	rows, err := s.db.Query(`
		SELECT currency, convention, label, tenor, quote_value
		FROM credit_quotes
		WHERE quote_date = $1 AND legal_entity = $2
		ORDER BY ord`,
		date.Format(dateLayout), legalEntityID)
	if err != nil {
		return marketdata.CreditQuoteSet{}, fmt.Errorf("CreditQuotes: %w", err)
	}
	defer rows.Close()

	set := marketdata.CreditQuoteSet{Date: date, LegalEntityID: legalEntityID}
	for rows.Next() {
		var currency, convention, label, tenor string
		var value float64
		if err := rows.Scan(&currency, &convention, &label, &tenor, &value); err != nil {
			return marketdata.CreditQuoteSet{}, fmt.Errorf("CreditQuotes: %w", err)
		}
		set.Currency = currency
		set.Convention = credit.QuoteConvention(convention)
		set.Quotes = append(set.Quotes, marketdata.CDSQuote{Label: label, Tenor: tenor, Value: value})
	}
	if err := rows.Err(); err != nil {
		return marketdata.CreditQuoteSet{}, fmt.Errorf("CreditQuotes: %w", err)
	}
	if len(set.Quotes) == 0 {
		return marketdata.CreditQuoteSet{}, fmt.Errorf("CreditQuotes: %s %s: %w",
			date.Format(dateLayout), legalEntityID, marketdata.ErrNoQuotes)
	}
	return set, nil
}
