package clients

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clientregistry/internal/shared/database"
)

// ErrAmbiguousMatch is returned by FindOne when more than one row matches.
var ErrAmbiguousMatch = errors.New("more than one client matches")

// Filter narrows a paged search. Zero values are ignored.
type Filter struct {
	Name          string
	Email         string
	CPF           string
	Phone         string
	BirthdayStart *time.Time
	BirthdayEnd   *time.Time
}

// Attributes is an exact-match lookup. Zero values are ignored.
type Attributes struct {
	Name     string
	Email    string
	CPF      string
	Phone    string
	Birthday *time.Time
}

// Pagination is a resolved page request; Column is already whitelisted.
type Pagination struct {
	Page   int
	Size   int
	Column string
	Desc   bool
}

func (p Pagination) Offset() int { return p.Page * p.Size }

// Repository errors are already mapped through database.MapError: missing
// rows are database.ErrNotFound and unique violations *database.DuplicateError.
type Repository interface {
	Create(ctx context.Context, client *Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)
	FindByEmail(ctx context.Context, email string) (*Client, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByCPF(ctx context.Context, cpf string) (bool, error)
	Update(ctx context.Context, client *Client) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, filter Filter, page Pagination) ([]Client, int64, error)
	FindOne(ctx context.Context, attrs Attributes) (*Client, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, client *Client) error {
	return database.MapError(r.db.WithContext(ctx).Create(client).Error)
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	var client Client
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, database.MapError(err)
	}
	return &client, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Client, error) {
	var client Client
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&client).Error; err != nil {
		return nil, database.MapError(err)
	}
	return &client, nil
}

func (r *repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *repository) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	return r.exists(ctx, "cpf = ?", cpf)
}

func (r *repository) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Client{}).Where(query, arg).Limit(1).Count(&count).Error
	if err != nil {
		return false, database.MapError(err)
	}
	return count > 0, nil
}

// Update writes every column of client, including zero values.
func (r *repository) Update(ctx context.Context, client *Client) error {
	res := r.db.WithContext(ctx).Model(client).Select("*").Omit("id", "created_at").Updates(client)
	if res.Error != nil {
		return database.MapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Client{})
	if res.Error != nil {
		return database.MapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *repository) Search(ctx context.Context, filter Filter, page Pagination) ([]Client, int64, error) {
	var (
		clients []Client
		total   int64
	)

	db := applyFilter(r.db.WithContext(ctx).Model(&Client{}), filter).Session(&gorm.Session{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, database.MapError(err)
	}
	if total == 0 {
		return []Client{}, 0, nil
	}

	err := db.
		Order(clause.OrderByColumn{Column: clause.Column{Name: page.Column}, Desc: page.Desc}).
		Order("id").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&clients).Error
	if err != nil {
		return nil, 0, database.MapError(err)
	}
	return clients, total, nil
}

func (r *repository) FindOne(ctx context.Context, attrs Attributes) (*Client, error) {
	db := r.db.WithContext(ctx).Model(&Client{})
	if attrs.Name != "" {
		db = db.Where("LOWER(name) = ?", strings.ToLower(attrs.Name))
	}
	if attrs.Email != "" {
		db = db.Where("email = ?", attrs.Email)
	}
	if attrs.CPF != "" {
		db = db.Where("cpf = ?", attrs.CPF)
	}
	if attrs.Phone != "" {
		db = db.Where("phone = ?", attrs.Phone)
	}
	if attrs.Birthday != nil {
		db = db.Where("birthday = ?", *attrs.Birthday)
	}

	var found []Client
	if err := db.Limit(2).Find(&found).Error; err != nil {
		return nil, database.MapError(err)
	}
	switch len(found) {
	case 0:
		return nil, database.ErrNotFound
	case 1:
		return &found[0], nil
	default:
		return nil, ErrAmbiguousMatch
	}
}

func applyFilter(db *gorm.DB, f Filter) *gorm.DB {
	if f.Name != "" {
		db = db.Where("LOWER(name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(f.Name))+"%")
	}
	if f.Email != "" {
		db = db.Where("email = ?", f.Email)
	}
	if f.CPF != "" {
		db = db.Where("cpf = ?", f.CPF)
	}
	if f.Phone != "" {
		db = db.Where("phone = ?", f.Phone)
	}
	if f.BirthdayStart != nil {
		db = db.Where("birthday >= ?", *f.BirthdayStart)
	}
	if f.BirthdayEnd != nil {
		db = db.Where("birthday <= ?", *f.BirthdayEnd)
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
