package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gym_backend/internal/models"
)

// AccessCardRepository defines the interface for access card database operations.
type AccessCardRepository interface {
	UpsertAccessCard(executor SQLExecutor, card *models.AccessCard) error
	GetAccessCardByClientID(clientID int64) (*models.AccessCard, error)
	TouchLastEntry(executor SQLExecutor, clientID int64, at time.Time) error
}

type accessCardRepository struct {
	db *sql.DB
}

// NewAccessCardRepository creates a new instance of AccessCardRepository.
func NewAccessCardRepository(db *sql.DB) AccessCardRepository {
	return &accessCardRepository{db: db}
}

// UpsertAccessCard issues a card, replacing the code of an existing one.
func (r *accessCardRepository) UpsertAccessCard(executor SQLExecutor, card *models.AccessCard) error {
	query := `INSERT INTO access_cards (client_id, code, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $4)
	          ON CONFLICT (client_id) DO UPDATE SET code = EXCLUDED.code, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
	          RETURNING id, created_at, last_entry_at`

	currentTime := time.Now()
	if card.Status == "" {
		card.Status = models.AccessCardActive
	}
	var lastEntry sql.NullTime
	err := executor.QueryRow(query, card.ClientID, card.Code, card.Status, currentTime).
		Scan(&card.ID, &card.CreatedAt, &lastEntry)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("issuing access card for client %d", card.ClientID))
	}
	card.UpdatedAt = currentTime
	card.LastEntryAt = nullTimePtr(lastEntry)
	return nil
}

// GetAccessCardByClientID retrieves the card bound to a client.
func (r *accessCardRepository) GetAccessCardByClientID(clientID int64) (*models.AccessCard, error) {
	query := `SELECT id, client_id, code, status, last_entry_at, created_at, updated_at
	          FROM access_cards WHERE client_id = $1`
	card := &models.AccessCard{}
	var lastEntry sql.NullTime
	err := r.db.QueryRow(query, clientID).Scan(
		&card.ID, &card.ClientID, &card.Code, &card.Status, &lastEntry, &card.CreatedAt, &card.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting access card of client %d: %v", ErrDatabaseError, clientID, err)
	}
	card.LastEntryAt = nullTimePtr(lastEntry)
	return card, nil
}

// TouchLastEntry stamps the last granted entry. Clients without a card are ignored.
func (r *accessCardRepository) TouchLastEntry(executor SQLExecutor, clientID int64, at time.Time) error {
	_, err := executor.Exec(`UPDATE access_cards SET last_entry_at = $1 WHERE client_id = $2`, at, clientID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("touching access card of client %d", clientID))
	}
	return nil
}
