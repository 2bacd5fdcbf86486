package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gym_backend/internal/models"

	"github.com/lib/pq"
)

// MembershipRepository defines the interface for membership plan database operations.
type MembershipRepository interface {
	CreateMembership(executor SQLExecutor, m *models.Membership) (int64, error)
	GetMembershipByID(id int64) (*models.Membership, error)
	GetMemberships(activeOnly bool) ([]models.Membership, error)
	UpdateMembership(executor SQLExecutor, m *models.Membership) error
	DeleteMembership(executor SQLExecutor, id int64) error
}

type membershipRepository struct {
	db *sql.DB
}

// NewMembershipRepository creates a new instance of MembershipRepository.
func NewMembershipRepository(db *sql.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

const membershipColumns = `m.id, m.name, m.description, m.type, m.mode, m.price, m.duration_months, m.features,
	m.active, m.created_at, m.updated_at`

func scanMembership(row scanner, extra ...interface{}) (*models.Membership, error) {
	var m models.Membership
	var mode string
	var features []string
	dest := []interface{}{
		&m.ID, &m.Name, &m.Description, &m.Type, &mode, &m.Price, &m.DurationMonths, pq.Array(&features),
		&m.Active, &m.CreatedAt, &m.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	m.Mode = models.MembershipMode(mode)
	if features == nil {
		features = []string{}
	}
	m.Features = features
	return &m, nil
}

// CreateMembership inserts a new plan.
func (r *membershipRepository) CreateMembership(executor SQLExecutor, m *models.Membership) (int64, error) {
	query := `INSERT INTO memberships (name, description, type, mode, price, duration_months, features, active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	          RETURNING id`

	currentTime := time.Now()
	if m.Features == nil {
		m.Features = []string{}
	}
	err := executor.QueryRow(query,
		m.Name, m.Description, m.Type, string(m.Mode), m.Price, m.DurationMonths, pq.Array(m.Features), m.Active, currentTime,
	).Scan(&m.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating membership")
	}
	m.CreatedAt = currentTime
	m.UpdatedAt = currentTime
	return m.ID, nil
}

// GetMembershipByID retrieves a plan with its count of non-suspended clients.
func (r *membershipRepository) GetMembershipByID(id int64) (*models.Membership, error) {
	query := `SELECT ` + membershipColumns + `,
	              (SELECT COUNT(*) FROM clients c WHERE c.membership_id = m.id AND c.status <> 'suspended')
	          FROM memberships m WHERE m.id = $1`

	var count int
	m, err := scanMembership(r.db.QueryRow(query, id), &count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting membership by ID %d: %v", ErrDatabaseError, id, err)
	}
	m.ActiveClients = count
	return m, nil
}

// GetMemberships lists plans ordered by price, each with its count of non-suspended clients.
func (r *membershipRepository) GetMemberships(activeOnly bool) ([]models.Membership, error) {
	query := `SELECT ` + membershipColumns + `,
	              (SELECT COUNT(*) FROM clients c WHERE c.membership_id = m.id AND c.status <> 'suspended')
	          FROM memberships m
	          WHERE ($1 = FALSE OR m.active)
	          ORDER BY m.price ASC, m.id ASC`

	rows, err := r.db.Query(query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%w: querying memberships: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	list := []models.Membership{}
	for rows.Next() {
		var count int
		m, err := scanMembership(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning membership: %v", ErrDatabaseError, err)
		}
		m.ActiveClients = count
		list = append(list, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating memberships: %v", ErrDatabaseError, err)
	}
	return list, nil
}

// UpdateMembership overwrites a plan.
func (r *membershipRepository) UpdateMembership(executor SQLExecutor, m *models.Membership) error {
	query := `UPDATE memberships SET name = $1, description = $2, type = $3, mode = $4, price = $5,
	              duration_months = $6, features = $7, active = $8, updated_at = $9
	          WHERE id = $10`

	m.UpdatedAt = time.Now()
	if m.Features == nil {
		m.Features = []string{}
	}
	result, err := executor.Exec(query,
		m.Name, m.Description, m.Type, string(m.Mode), m.Price, m.DurationMonths, pq.Array(m.Features), m.Active, m.UpdatedAt, m.ID,
	)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating membership ID %d", m.ID))
	}
	return expectOneRow(result, fmt.Sprintf("updating membership ID %d", m.ID))
}

// DeleteMembership removes a plan. Clients holding it keep their dates and lose the plan reference.
func (r *membershipRepository) DeleteMembership(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM memberships WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting membership ID %d", id))
	}
	return expectOneRow(result, fmt.Sprintf("deleting membership ID %d", id))
}
