// Package repofakes provides in-memory repositories for service tests.
package repofakes

import (
	"sort"
	"strings"
	"sync"
	"time"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories"
)

// Store is shared state behind the fake repositories so joins (client -> plan, card -> client) work.
type Store struct {
	mu          sync.Mutex
	nextID      int64
	Clients     map[int64]*models.Client
	Memberships map[int64]*models.Membership
	Cards       map[int64]*models.AccessCard // by client id
	Attendances map[int64]*models.Attendance
	Settings    *models.GymSettings
	Users       map[int64]*models.User
	Hashes      map[int64]string
	Roles       map[string]*models.Role

	// FailWith, when set, is returned by every read and write.
	FailWith error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		Clients:     map[int64]*models.Client{},
		Memberships: map[int64]*models.Membership{},
		Cards:       map[int64]*models.AccessCard{},
		Attendances: map[int64]*models.Attendance{},
		Users:       map[int64]*models.User{},
		Hashes:      map[int64]string{},
		Roles: map[string]*models.Role{
			models.RoleAdmin: {ID: 1, Name: models.RoleAdmin},
			models.RoleStaff: {ID: 2, Name: models.RoleStaff},
			models.RoleKiosk: {ID: 3, Name: models.RoleKiosk},
		},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddMembership stores a plan and returns it.
func (s *Store) AddMembership(m models.Membership) *models.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		m.ID = s.id()
	}
	s.Memberships[m.ID] = &m
	return &m
}

// AddClient stores a client and returns it.
func (s *Store) AddClient(c models.Client) *models.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	if c.Status == "" {
		c.Status = models.MembershipStatusActive
	}
	s.Clients[c.ID] = &c
	return &c
}

func (s *Store) joinedClient(c *models.Client) *models.Client {
	cp := *c
	cp.Membership = nil
	if c.MembershipID != nil {
		if m, ok := s.Memberships[*c.MembershipID]; ok {
			mc := *m
			cp.Membership = &mc
		}
	}
	return &cp
}

// ClientRepository

type clientRepo struct{ s *Store }

// NewClientRepository returns a ClientRepository over the store.
func NewClientRepository(s *Store) repositories.ClientRepository { return &clientRepo{s: s} }

func (r *clientRepo) CreateClient(_ repositories.SQLExecutor, client *models.Client) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return 0, r.s.FailWith
	}
	for _, c := range r.s.Clients {
		if client.NationalID != nil && c.NationalID != nil && *c.NationalID == *client.NationalID {
			return 0, repositories.ErrDuplicateKey
		}
	}
	client.ID = r.s.id()
	if client.Status == "" {
		client.Status = models.MembershipStatusActive
	}
	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt
	cp := *client
	cp.Membership = nil
	r.s.Clients[client.ID] = &cp
	return client.ID, nil
}

func (r *clientRepo) GetClientByID(id int64) (*models.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, r.s.FailWith
	}
	c, ok := r.s.Clients[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return r.s.joinedClient(c), nil
}

func (r *clientRepo) GetClientByNationalID(nationalID string) (*models.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, r.s.FailWith
	}
	for _, c := range r.s.Clients {
		if c.NationalID != nil && *c.NationalID == nationalID {
			return r.s.joinedClient(c), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *clientRepo) GetClientByAccessCode(code string) (*models.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, r.s.FailWith
	}
	for clientID, card := range r.s.Cards {
		if card.Code == code && card.Status == models.AccessCardActive {
			if c, ok := r.s.Clients[clientID]; ok {
				return r.s.joinedClient(c), nil
			}
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *clientRepo) GetClients(filters models.ClientFilters) ([]models.Client, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, 0, r.s.FailWith
	}
	list := []models.Client{}
	for _, c := range r.s.Clients {
		if filters.Search != nil && !strings.Contains(strings.ToLower(c.FullName), strings.ToLower(*filters.Search)) {
			continue
		}
		if filters.Status != nil && string(c.Status) != *filters.Status {
			continue
		}
		list = append(list, *r.s.joinedClient(c))
	}
	return list, len(list), nil
}

func (r *clientRepo) UpdateClient(_ repositories.SQLExecutor, client *models.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return r.s.FailWith
	}
	if _, ok := r.s.Clients[client.ID]; !ok {
		return repositories.ErrNotFound
	}
	client.UpdatedAt = time.Now()
	cp := *client
	cp.Membership = nil
	r.s.Clients[client.ID] = &cp
	return nil
}

func (r *clientRepo) UpdateMembershipPeriod(_ repositories.SQLExecutor, clientID int64, membershipID *int64, start *time.Time, end *time.Time, status models.MembershipStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return r.s.FailWith
	}
	c, ok := r.s.Clients[clientID]
	if !ok {
		return repositories.ErrNotFound
	}
	if membershipID != nil {
		id := *membershipID
		c.MembershipID = &id
	}
	if start != nil {
		c.StartDate = start
	}
	c.EndDate = end
	c.Status = status
	return nil
}

func (r *clientRepo) DeleteClient(_ repositories.SQLExecutor, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return r.s.FailWith
	}
	if _, ok := r.s.Clients[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.Clients, id)
	return nil
}

func (r *clientRepo) NationalIDExists(nationalID string, excludeID *int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return false, r.s.FailWith
	}
	for _, c := range r.s.Clients {
		if excludeID != nil && c.ID == *excludeID {
			continue
		}
		if c.NationalID != nil && *c.NationalID == nationalID {
			return true, nil
		}
	}
	return false, nil
}

func (r *clientRepo) CountByStatus() (map[models.MembershipStatus]int, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, 0, r.s.FailWith
	}
	counts := map[models.MembershipStatus]int{}
	for _, c := range r.s.Clients {
		counts[c.Status]++
	}
	return counts, len(r.s.Clients), nil
}

func (r *clientRepo) CountPerMembership() ([]models.MembershipCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, r.s.FailWith
	}
	byPlan := map[int64]int{}
	none := 0
	for _, c := range r.s.Clients {
		if c.MembershipID == nil {
			none++
			continue
		}
		byPlan[*c.MembershipID]++
	}
	list := []models.MembershipCount{}
	for id, n := range byPlan {
		id := id
		list = append(list, models.MembershipCount{MembershipID: &id, Count: n})
	}
	if none > 0 {
		list = append(list, models.MembershipCount{Count: none})
	}
	return list, nil
}

func (s *Store) period(c *models.Client) models.ClientPeriod {
	cp := models.ClientPeriod{ID: c.ID, FullName: c.FullName, Email: c.Email, PhoneNumber: c.PhoneNumber, AvatarURL: c.AvatarURL, EndDate: c.EndDate}
	if j := s.joinedClient(c); j.Membership != nil {
		name := j.Membership.Name
		cp.MembershipName = &name
	}
	return cp
}

// listPeriods collects the clients keep accepts, sorted by less and cut at limit.
func (r *clientRepo) listPeriods(keep func(c *models.Client) bool, less func(a, b models.ClientPeriod) bool, limit int) ([]models.ClientPeriod, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, r.s.FailWith
	}
	list := []models.ClientPeriod{}
	for _, c := range r.s.Clients {
		if keep(c) {
			list = append(list, r.s.period(c))
		}
	}
	sort.Slice(list, func(i, j int) bool { return less(list[i], list[j]) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func byName(a, b models.ClientPeriod) bool { return a.FullName < b.FullName }

func endKey(c *models.Client) string {
	if c.EndDate == nil {
		return ""
	}
	return c.EndDate.Format(models.DateLayout)
}

func (r *clientRepo) ListExpiring(from, to time.Time, limit int) ([]models.ClientPeriod, error) {
	fromDay := from.Format(models.DateLayout)
	toDay := to.Format(models.DateLayout)
	return r.listPeriods(func(c *models.Client) bool {
		day := endKey(c)
		return c.Status == models.MembershipStatusActive && day != "" && day >= fromDay && day <= toDay
	}, func(a, b models.ClientPeriod) bool {
		ak, bk := a.EndDate.Format(models.DateLayout), b.EndDate.Format(models.DateLayout)
		if ak != bk {
			return ak < bk
		}
		return a.FullName < b.FullName
	}, limit)
}

func (r *clientRepo) ListCurrent(today time.Time, limit int) ([]models.ClientPeriod, error) {
	todayKey := today.Format(models.DateLayout)
	return r.listPeriods(func(c *models.Client) bool {
		return c.Status == models.MembershipStatusActive && (c.EndDate == nil || endKey(c) >= todayKey)
	}, byName, limit)
}

func (r *clientRepo) ListLapsed(today time.Time, limit int) ([]models.ClientPeriod, error) {
	todayKey := today.Format(models.DateLayout)
	return r.listPeriods(func(c *models.Client) bool {
		if c.Status == models.MembershipStatusExpired {
			return true
		}
		return c.Status == models.MembershipStatusActive && c.EndDate != nil && endKey(c) < todayKey
	}, byName, limit)
}

// MembershipRepository

type membershipRepo struct{ s *Store }

// NewMembershipRepository returns a MembershipRepository over the store.
func NewMembershipRepository(s *Store) repositories.MembershipRepository { return &membershipRepo{s: s} }

func (r *membershipRepo) CreateMembership(_ repositories.SQLExecutor, m *models.Membership) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return 0, r.s.FailWith
	}
	m.ID = r.s.id()
	cp := *m
	r.s.Memberships[m.ID] = &cp
	return m.ID, nil
}

func (r *membershipRepo) GetMembershipByID(id int64) (*models.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, r.s.FailWith
	}
	m, ok := r.s.Memberships[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *m
	cp.ActiveClients = r.countActive(id)
	return &cp, nil
}

func (r *membershipRepo) countActive(id int64) int {
	n := 0
	for _, c := range r.s.Clients {
		if c.MembershipID != nil && *c.MembershipID == id && c.Status != models.MembershipStatusSuspended {
			n++
		}
	}
	return n
}

func (r *membershipRepo) GetMemberships(activeOnly bool) ([]models.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, r.s.FailWith
	}
	list := []models.Membership{}
	for _, m := range r.s.Memberships {
		if activeOnly && !m.Active {
			continue
		}
		cp := *m
		cp.ActiveClients = r.countActive(m.ID)
		list = append(list, cp)
	}
	return list, nil
}

func (r *membershipRepo) UpdateMembership(_ repositories.SQLExecutor, m *models.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return r.s.FailWith
	}
	if _, ok := r.s.Memberships[m.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *m
	r.s.Memberships[m.ID] = &cp
	return nil
}

func (r *membershipRepo) DeleteMembership(_ repositories.SQLExecutor, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return r.s.FailWith
	}
	if _, ok := r.s.Memberships[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.Memberships, id)
	return nil
}

// AccessCardRepository

type accessCardRepo struct{ s *Store }

// NewAccessCardRepository returns an AccessCardRepository over the store.
func NewAccessCardRepository(s *Store) repositories.AccessCardRepository { return &accessCardRepo{s: s} }

func (r *accessCardRepo) UpsertAccessCard(_ repositories.SQLExecutor, card *models.AccessCard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return r.s.FailWith
	}
	if card.Status == "" {
		card.Status = models.AccessCardActive
	}
	if existing, ok := r.s.Cards[card.ClientID]; ok {
		card.ID = existing.ID
		card.LastEntryAt = existing.LastEntryAt
	} else {
		card.ID = r.s.id()
	}
	cp := *card
	r.s.Cards[card.ClientID] = &cp
	return nil
}

func (r *accessCardRepo) GetAccessCardByClientID(clientID int64) (*models.AccessCard, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, r.s.FailWith
	}
	card, ok := r.s.Cards[clientID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *card
	return &cp, nil
}

func (r *accessCardRepo) TouchLastEntry(_ repositories.SQLExecutor, clientID int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return r.s.FailWith
	}
	if card, ok := r.s.Cards[clientID]; ok {
		t := at
		card.LastEntryAt = &t
	}
	return nil
}

// SettingsRepository

type settingsRepo struct{ s *Store }

// NewSettingsRepository returns a SettingsRepository over the store.
func NewSettingsRepository(s *Store) repositories.SettingsRepository { return &settingsRepo{s: s} }

func (r *settingsRepo) GetSettings() (*models.GymSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, r.s.FailWith
	}
	if r.s.Settings == nil {
		defaults := models.DefaultGymSettings()
		defaults.ID = 1
		r.s.Settings = &defaults
	}
	cp := *r.s.Settings
	return &cp, nil
}

func (r *settingsRepo) UpdateSettings(_ repositories.SQLExecutor, settings *models.GymSettings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return r.s.FailWith
	}
	if r.s.Settings == nil || r.s.Settings.ID != settings.ID {
		return repositories.ErrNotFound
	}
	cp := *settings
	r.s.Settings = &cp
	return nil
}
