package clients

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"clientregistry/internal/audit"
	"clientregistry/internal/auth"
	"clientregistry/internal/shared/constants"
	"clientregistry/internal/shared/database"
	"clientregistry/internal/shared/validation"
	"clientregistry/pkg/cache"
	"clientregistry/pkg/logger"
)

var (
	ErrClientNotFound  = errors.New("client not found")
	ErrEmailExists     = errors.New("email address is already registered")
	ErrCPFExists       = errors.New("cpf is already registered")
	ErrInvalidQuery    = errors.New("invalid query")
	// bcrypt only reads the first 72 bytes of a password
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// sortable maps accepted sort keys to columns.
var sortable = map[string]string{
	"name":       "name",
	"email":      "email",
	"birthday":   "birthday",
	"createdAt":  "created_at",
	"created_at": "created_at",
	"updatedAt":  "updated_at",
	"updated_at": "updated_at",
}

type Service interface {
	CreateClient(ctx context.Context, req CreateClientRequest, roles ...auth.RoleName) (*ClientResponse, error)
	GetClientByID(ctx context.Context, id uuid.UUID) (*ClientResponse, error)
	UpdateClient(ctx context.Context, id uuid.UUID, req UpdateClientRequest) (*ClientResponse, error)
	DeleteClient(ctx context.Context, id uuid.UUID) error
	ListClients(ctx context.Context, q PageQuery) (*PaginatedClients, error)
	SearchClients(ctx context.Context, q SearchQuery) (*PaginatedClients, error)
	FindClient(ctx context.Context, q ExactQuery) (*ClientResponse, error)
}

type service struct {
	repo   Repository
	hasher auth.PasswordHasher
	cache  cache.Service
	audit  audit.Publisher
	log    *logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, hasher auth.PasswordHasher, cacheService cache.Service, pub audit.Publisher, log *logger.Logger) Service {
	if cacheService == nil {
		cacheService = cache.Noop{}
	}
	if pub == nil {
		pub = audit.Nop{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &service{
		repo:   repo,
		hasher: hasher,
		cache:  cacheService,
		audit:  pub,
		log:    log,
		now:    time.Now,
	}
}

// CreateClient registers a client with the given roles, or the default role
// when none are given.
func (s *service) CreateClient(ctx context.Context, req CreateClientRequest, roles ...auth.RoleName) (*ClientResponse, error) {
	client := &Client{
		Name:  strings.TrimSpace(req.Name),
		Email: auth.NormalizeEmail(req.Email),
		Phone: validation.NormalizePhone(req.Phone),
		CPF:   validation.DigitsOnly(req.CPF),
		Roles: RoleList(roles),
	}
	if len(client.Roles) == 0 {
		client.Roles = RoleList{auth.DefaultRole}
	}

	birthday, err := parseDate(req.Birthday)
	if err != nil {
		return nil, err
	}
	client.Birthday = birthday

	if err := s.ensureUnique(ctx, client.Email, client.CPF); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	client.Password = hash

	if err := s.repo.Create(ctx, client); err != nil {
		return nil, translate(err, "failed to create client")
	}

	s.publish(ctx, audit.EventClientCreated, client)
	resp := client.ToResponse(s.now())
	return &resp, nil
}

func (s *service) GetClientByID(ctx context.Context, id uuid.UUID) (*ClientResponse, error) {
	key := constants.BuildClientDetailKey(id.String())

	// a tombstone decodes to a zero Client and counts as a miss
	var cached Client
	if err := s.cache.Get(ctx, key, &cached); err == nil && cached.ID != uuid.Nil {
		resp := cached.ToResponse(s.now())
		return &resp, nil
	} else if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.log.WithError(err).WarnContext(ctx, "client cache read failed", "client_id", id)
	}

	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to get client")
	}

	// SetNX so a fill never replaces a tombstone left by a concurrent write
	if _, err := s.cache.SetNX(ctx, key, client, constants.TTL_CLIENT_DETAIL); err != nil {
		s.log.WithError(err).WarnContext(ctx, "client cache write failed", "client_id", id)
	}

	resp := client.ToResponse(s.now())
	return &resp, nil
}

func (s *service) UpdateClient(ctx context.Context, id uuid.UUID, req UpdateClientRequest) (*ClientResponse, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to get client")
	}

	if req.Name != nil {
		client.Name = strings.TrimSpace(*req.Name)
	}
	if req.Birthday != nil {
		birthday, err := parseDate(*req.Birthday)
		if err != nil {
			return nil, err
		}
		client.Birthday = birthday
	}
	if req.Phone != nil {
		client.Phone = validation.NormalizePhone(*req.Phone)
	}

	var newEmail, newCPF string
	if req.Email != nil {
		if email := auth.NormalizeEmail(*req.Email); email != client.Email {
			newEmail = email
		}
	}
	if req.CPF != nil {
		if cpf := validation.DigitsOnly(*req.CPF); cpf != client.CPF {
			newCPF = cpf
		}
	}
	if err := s.ensureUnique(ctx, newEmail, newCPF); err != nil {
		return nil, err
	}
	if newEmail != "" {
		client.Email = newEmail
	}
	if newCPF != "" {
		client.CPF = newCPF
	}

	// a changed password is always re-hashed
	if req.Password != nil {
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		client.Password = hash
	}

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, translate(err, "failed to update client")
	}

	s.invalidate(ctx, id)
	s.publish(ctx, audit.EventClientUpdated, client)
	resp := client.ToResponse(s.now())
	return &resp, nil
}

func (s *service) hashPassword(plaintext string) (string, error) {
	hash, err := s.hasher.Hash(plaintext)
	switch {
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return "", ErrPasswordTooLong
	case err != nil:
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

func (s *service) DeleteClient(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return translate(err, "failed to delete client")
	}

	s.invalidate(ctx, id)
	s.publish(ctx, audit.EventClientDeleted, &Client{ID: id})
	return nil
}

func (s *service) ListClients(ctx context.Context, q PageQuery) (*PaginatedClients, error) {
	return s.SearchClients(ctx, SearchQuery{PageQuery: q})
}

func (s *service) SearchClients(ctx context.Context, q SearchQuery) (*PaginatedClients, error) {
	page, err := resolvePage(q.PageQuery)
	if err != nil {
		return nil, err
	}

	filter := Filter{
		Name:  strings.TrimSpace(q.Name),
		Email: auth.NormalizeEmail(q.Email),
		CPF:   validation.DigitsOnly(q.CPF),
		Phone: validation.NormalizePhone(q.Phone),
	}
	if filter.BirthdayStart, err = parseDate(q.BirthdayStart); err != nil {
		return nil, err
	}
	if filter.BirthdayEnd, err = parseDate(q.BirthdayEnd); err != nil {
		return nil, err
	}
	if filter.BirthdayStart != nil && filter.BirthdayEnd != nil && filter.BirthdayStart.After(*filter.BirthdayEnd) {
		return nil, fmt.Errorf("%w: birthdayStart is after birthdayEnd", ErrInvalidQuery)
	}

	clients, total, err := s.repo.Search(ctx, filter, page)
	if err != nil {
		return nil, translate(err, "failed to search clients")
	}

	now := s.now()
	content := make([]ClientResponse, 0, len(clients))
	for i := range clients {
		content = append(content, clients[i].ToResponse(now))
	}

	return &PaginatedClients{
		Content:       content,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: total,
		TotalPages:    int(math.Ceil(float64(total) / float64(page.Size))),
	}, nil
}

func (s *service) FindClient(ctx context.Context, q ExactQuery) (*ClientResponse, error) {
	if q.IsEmpty() {
		return nil, fmt.Errorf("%w: at least one attribute is required", ErrInvalidQuery)
	}

	attrs := Attributes{
		Name:  strings.TrimSpace(q.Name),
		Email: auth.NormalizeEmail(q.Email),
		CPF:   validation.DigitsOnly(q.CPF),
		Phone: validation.NormalizePhone(q.Phone),
	}
	birthday, err := parseDate(q.Birthday)
	if err != nil {
		return nil, err
	}
	attrs.Birthday = birthday

	client, err := s.repo.FindOne(ctx, attrs)
	if err != nil {
		return nil, translate(err, "failed to find client")
	}

	resp := client.ToResponse(s.now())
	return &resp, nil
}

// ensureUnique checks the non-empty values; the unique indexes still catch races.
func (s *service) ensureUnique(ctx context.Context, email, cpf string) error {
	if email != "" {
		exists, err := s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return ErrEmailExists
		}
	}
	if cpf != "" {
		exists, err := s.repo.ExistsByCPF(ctx, cpf)
		if err != nil {
			return fmt.Errorf("failed to check cpf: %w", err)
		}
		if exists {
			return ErrCPFExists
		}
	}
	return nil
}

// invalidate replaces the cached record with a JSON null tombstone.
func (s *service) invalidate(ctx context.Context, id uuid.UUID) {
	key := constants.BuildClientDetailKey(id.String())
	if err := s.cache.Set(ctx, key, nil, constants.TTL_CLIENT_TOMBSTONE); err != nil {
		s.log.WithError(err).WarnContext(ctx, "client cache invalidation failed", "client_id", id)
	}
}

func (s *service) publish(ctx context.Context, t audit.EventType, client *Client) {
	s.audit.Publish(audit.NewEvent(t).
		WithSubject(client.ID.String()).
		WithEmail(client.Email).
		WithResource(client.ID.String()).
		WithIP(auth.ClientIPFromContext(ctx)))
}

func translate(err error, op string) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return ErrClientNotFound
	case errors.Is(err, ErrAmbiguousMatch):
		return err
	case database.IsDuplicate(err, ConstraintEmail):
		return ErrEmailExists
	case database.IsDuplicate(err, ConstraintCPF):
		return ErrCPFExists
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func resolvePage(q PageQuery) (Pagination, error) {
	p := Pagination{Page: q.Page, Size: q.Size, Column: "created_at"}
	if p.Page < 0 {
		return p, fmt.Errorf("%w: page must not be negative", ErrInvalidQuery)
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}

	if q.Sort == "" {
		return p, nil
	}
	field, dir, _ := strings.Cut(q.Sort, ",")
	column, ok := sortable[strings.TrimSpace(field)]
	if !ok {
		return p, fmt.Errorf("%w: cannot sort by %q", ErrInvalidQuery, field)
	}
	p.Column = column
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		p.Desc = true
	default:
		return p, fmt.Errorf("%w: sort direction must be asc or desc", ErrInvalidQuery)
	}
	return p, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(validation.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a date (%s)", ErrInvalidQuery, s, validation.DateLayout)
	}
	return &t, nil
}
