package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gym_backend/internal/models"
)

// ClientRepository defines the interface for client-related database operations.
type ClientRepository interface {
	CreateClient(executor SQLExecutor, client *models.Client) (int64, error)
	GetClientByID(id int64) (*models.Client, error)
	GetClientByNationalID(nationalID string) (*models.Client, error)
	GetClientByAccessCode(code string) (*models.Client, error)
	GetClients(filters models.ClientFilters) ([]models.Client, int, error) // Clients, total count, error
	UpdateClient(executor SQLExecutor, client *models.Client) error
	UpdateMembershipPeriod(executor SQLExecutor, clientID int64, membershipID *int64, start *time.Time, end *time.Time, status models.MembershipStatus) error
	DeleteClient(executor SQLExecutor, id int64) error
	NationalIDExists(nationalID string, excludeID *int64) (bool, error)
	CountByStatus() (map[models.MembershipStatus]int, int, error) // per status, total
	CountPerMembership() ([]models.MembershipCount, error)
	ListExpiring(from, to time.Time, limit int) ([]models.ClientPeriod, error)
	ListCurrent(today time.Time, limit int) ([]models.ClientPeriod, error)
	ListLapsed(today time.Time, limit int) ([]models.ClientPeriod, error)
}

type clientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new instance of ClientRepository.
func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

const clientSelectColumns = `c.id, c.full_name, c.national_id, c.email, c.phone_number, c.date_of_birth,
	c.membership_id, c.status, c.start_date, c.end_date, c.avatar_url, c.created_at, c.updated_at,
	m.id, m.name, m.type, m.mode, m.price, m.duration_months`

const clientFromJoin = ` FROM clients c LEFT JOIN memberships m ON m.id = c.membership_id`

// scanClient scans a client row joined with its membership plan.
func scanClient(row scanner, extra ...interface{}) (*models.Client, error) {
	var client models.Client
	var status string
	var dob, start, end sql.NullTime
	var mID sql.NullInt64
	var mName, mType, mMode sql.NullString
	var mPrice sql.NullFloat64
	var mDuration sql.NullInt32

	dest := []interface{}{
		&client.ID, &client.FullName, &client.NationalID, &client.Email, &client.PhoneNumber, &dob,
		&client.MembershipID, &status, &start, &end, &client.AvatarURL, &client.CreatedAt, &client.UpdatedAt,
		&mID, &mName, &mType, &mMode, &mPrice, &mDuration,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	client.Status = models.MembershipStatus(status)
	client.DateOfBirth = nullTimePtr(dob)
	client.StartDate = nullTimePtr(start)
	client.EndDate = nullTimePtr(end)
	if mID.Valid {
		client.Membership = &models.Membership{
			ID:             mID.Int64,
			Name:           mName.String,
			Type:           mType.String,
			Mode:           models.MembershipMode(mMode.String),
			Price:          mPrice.Float64,
			DurationMonths: int(mDuration.Int32),
		}
	}
	return &client, nil
}

// CreateClient inserts a new client into the database.
func (r *clientRepository) CreateClient(executor SQLExecutor, client *models.Client) (int64, error) {
	query := `INSERT INTO clients (full_name, national_id, email, phone_number, date_of_birth, membership_id,
	              status, start_date, end_date, avatar_url, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`

	currentTime := time.Now()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = currentTime
	}
	if client.UpdatedAt.IsZero() {
		client.UpdatedAt = currentTime
	}
	if client.Status == "" {
		client.Status = models.MembershipStatusActive
	}

	err := executor.QueryRow(query,
		client.FullName, client.NationalID, client.Email, client.PhoneNumber, dateParam(client.DateOfBirth),
		client.MembershipID, string(client.Status), dateParam(client.StartDate), dateParam(client.EndDate),
		client.AvatarURL, client.CreatedAt, client.UpdatedAt,
	).Scan(&client.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating client")
	}
	return client.ID, nil
}

// GetClientByID retrieves a client by their ID.
func (r *clientRepository) GetClientByID(id int64) (*models.Client, error) {
	query := `SELECT ` + clientSelectColumns + clientFromJoin + ` WHERE c.id = $1`
	client, err := scanClient(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting client by ID %d: %v", ErrDatabaseError, id, err)
	}
	return client, nil
}

// GetClientByNationalID retrieves a client by their national ID (DNI).
func (r *clientRepository) GetClientByNationalID(nationalID string) (*models.Client, error) {
	query := `SELECT ` + clientSelectColumns + clientFromJoin + ` WHERE c.national_id = $1`
	client, err := scanClient(r.db.QueryRow(query, nationalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting client by national ID: %v", ErrDatabaseError, err)
	}
	return client, nil
}

// GetClientByAccessCode retrieves the client owning an active access card.
func (r *clientRepository) GetClientByAccessCode(code string) (*models.Client, error) {
	query := `SELECT ` + clientSelectColumns + clientFromJoin + `
	          JOIN access_cards ac ON ac.client_id = c.id
	          WHERE ac.code = $1 AND ac.status = 'active'`
	client, err := scanClient(r.db.QueryRow(query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting client by access code: %v", ErrDatabaseError, err)
	}
	return client, nil
}

// GetClients retrieves a list of clients with pagination and optional search.
func (r *clientRepository) GetClients(filters models.ClientFilters) ([]models.Client, int, error) {
	clients := []models.Client{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + clientSelectColumns + `, COUNT(*) OVER() as total_count` + clientFromJoin)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		searchPattern := "%" + strings.ToLower(strings.TrimSpace(*filters.Search)) + "%"
		conditions = append(conditions, fmt.Sprintf("(c.full_name ILIKE $%d OR c.email ILIKE $%d OR c.phone_number ILIKE $%d OR c.national_id ILIKE $%d)", argCount, argCount, argCount, argCount))
		args = append(args, searchPattern)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY c.created_at DESC, c.id DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, filters.PageSize)
		argCount++
		if filters.Page > 0 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, (filters.Page-1)*filters.PageSize)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying clients: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		client, err := scanClient(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning client: %v", ErrDatabaseError, err)
		}
		clients = append(clients, *client)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating client rows: %v", ErrDatabaseError, err)
	}
	return clients, totalCount, nil
}

// UpdateClient updates an existing client in the database.
func (r *clientRepository) UpdateClient(executor SQLExecutor, client *models.Client) error {
	query := `UPDATE clients SET
	            full_name = $1, national_id = $2, email = $3, phone_number = $4, date_of_birth = $5,
	            membership_id = $6, status = $7, start_date = $8, end_date = $9, avatar_url = $10, updated_at = $11
	          WHERE id = $12`

	client.UpdatedAt = time.Now()
	result, err := executor.Exec(query,
		client.FullName, client.NationalID, client.Email, client.PhoneNumber, dateParam(client.DateOfBirth),
		client.MembershipID, string(client.Status), dateParam(client.StartDate), dateParam(client.EndDate),
		client.AvatarURL, client.UpdatedAt, client.ID,
	)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating client ID %d", client.ID))
	}
	return expectOneRow(result, fmt.Sprintf("updating client ID %d", client.ID))
}

// UpdateMembershipPeriod sets plan, dates and status in one statement (renewal, payment).
// A nil membershipID or start keeps the stored value.
func (r *clientRepository) UpdateMembershipPeriod(executor SQLExecutor, clientID int64, membershipID *int64, start *time.Time, end *time.Time, status models.MembershipStatus) error {
	query := `UPDATE clients SET membership_id = COALESCE($1, membership_id), start_date = COALESCE($2::date, start_date), end_date = $3,
	              status = $4, updated_at = $5
	          WHERE id = $6`
	result, err := executor.Exec(query, membershipID, dateParam(start), dateParam(end), string(status), time.Now(), clientID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating membership period of client ID %d", clientID))
	}
	return expectOneRow(result, fmt.Sprintf("updating membership period of client ID %d", clientID))
}

// DeleteClient removes a client from the database.
func (r *clientRepository) DeleteClient(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting client ID %d", id))
	}
	return expectOneRow(result, fmt.Sprintf("deleting client ID %d", id))
}

// NationalIDExists reports whether another client already uses nationalID.
func (r *clientRepository) NationalIDExists(nationalID string, excludeID *int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM clients WHERE national_id = $1 AND ($2::bigint IS NULL OR id <> $2))`
	var exists bool
	if err := r.db.QueryRow(query, nationalID, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking national ID: %v", ErrDatabaseError, err)
	}
	return exists, nil
}

// CountByStatus counts clients per stored status.
func (r *clientRepository) CountByStatus() (map[models.MembershipStatus]int, int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM clients GROUP BY status`)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: counting clients by status: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	counts := map[models.MembershipStatus]int{}
	total := 0
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning client status count: %v", ErrDatabaseError, err)
		}
		counts[models.MembershipStatus(status)] = n
		total += n
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating client status counts: %v", ErrDatabaseError, err)
	}
	return counts, total, nil
}

// CountPerMembership counts clients per plan; a nil MembershipID groups clients without plan.
func (r *clientRepository) CountPerMembership() ([]models.MembershipCount, error) {
	rows, err := r.db.Query(`SELECT membership_id, COUNT(*) FROM clients GROUP BY membership_id ORDER BY membership_id NULLS LAST`)
	if err != nil {
		return nil, fmt.Errorf("%w: counting clients per membership: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	counts := []models.MembershipCount{}
	for rows.Next() {
		var mc models.MembershipCount
		if err := rows.Scan(&mc.MembershipID, &mc.Count); err != nil {
			return nil, fmt.Errorf("%w: scanning membership count: %v", ErrDatabaseError, err)
		}
		counts = append(counts, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating membership counts: %v", ErrDatabaseError, err)
	}
	return counts, nil
}

const clientPeriodQuery = `SELECT c.id, c.full_name, c.email, c.phone_number, c.avatar_url, c.end_date, m.name
	          FROM clients c LEFT JOIN memberships m ON m.id = c.membership_id`

func (r *clientRepository) listPeriods(op, query string, args ...interface{}) ([]models.ClientPeriod, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s clients: %v", ErrDatabaseError, op, err)
	}
	defer rows.Close()

	list := []models.ClientPeriod{}
	for rows.Next() {
		var cp models.ClientPeriod
		var end sql.NullTime
		if err := rows.Scan(&cp.ID, &cp.FullName, &cp.Email, &cp.PhoneNumber, &cp.AvatarURL, &end, &cp.MembershipName); err != nil {
			return nil, fmt.Errorf("%w: scanning %s client: %v", ErrDatabaseError, op, err)
		}
		cp.EndDate = nullTimePtr(end)
		list = append(list, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating %s clients: %v", ErrDatabaseError, op, err)
	}
	return list, nil
}

// ListExpiring lists active clients whose end date falls within [from, to].
func (r *clientRepository) ListExpiring(from, to time.Time, limit int) ([]models.ClientPeriod, error) {
	query := clientPeriodQuery + `
	          WHERE c.status = 'active' AND c.end_date BETWEEN $1::date AND $2::date
	          ORDER BY c.end_date ASC, c.full_name ASC
	          LIMIT $3`
	return r.listPeriods("expiring", query, dateParam(&from), dateParam(&to), limit)
}

// ListCurrent lists active clients whose period has not ended, or has no end.
func (r *clientRepository) ListCurrent(today time.Time, limit int) ([]models.ClientPeriod, error) {
	query := clientPeriodQuery + `
	          WHERE c.status = 'active' AND (c.end_date IS NULL OR c.end_date >= $1::date)
	          ORDER BY c.full_name ASC
	          LIMIT $2`
	return r.listPeriods("current", query, dateParam(&today), limit)
}

// ListLapsed lists expired clients and active ones whose end date has passed.
func (r *clientRepository) ListLapsed(today time.Time, limit int) ([]models.ClientPeriod, error) {
	query := clientPeriodQuery + `
	          WHERE c.status = 'expired' OR (c.status = 'active' AND c.end_date < $1::date)
	          ORDER BY c.full_name ASC
	          LIMIT $2`
	return r.listPeriods("lapsed", query, dateParam(&today), limit)
}
