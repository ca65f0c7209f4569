package clients

// CreateClientRequest is used by both admin creation and self registration.
type CreateClientRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Birthday string `json:"birthday" validate:"omitempty,datetime=2006-01-02,past"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72,maxbytes=72"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	CPF      string `json:"cpf" validate:"required,cpf"`
}

// UpdateClientRequest changes only the fields that are present.
type UpdateClientRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Birthday *string `json:"birthday" validate:"omitempty,datetime=2006-01-02,past"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72,maxbytes=72"`
	Phone    *string `json:"phone" validate:"omitempty,phone"`
	CPF      *string `json:"cpf" validate:"omitempty,cpf"`
}

// PageQuery follows page/size/sort paging; page numbers start at 0 and sort
// is "field" or "field,asc|desc".
type PageQuery struct {
	Page int    `form:"page" json:"page" validate:"min=0"`
	Size int    `form:"size" json:"size" validate:"omitempty,min=1,max=100"`
	Sort string `form:"sort" json:"sort"`
}

// SearchQuery filters the paged listing. Name matches partially and case
// insensitively; the other text filters match exactly.
type SearchQuery struct {
	PageQuery
	Name          string `form:"name" json:"name"`
	Email         string `form:"email" json:"email"`
	CPF           string `form:"cpf" json:"cpf"`
	Phone         string `form:"phone" json:"phone"`
	BirthdayStart string `form:"birthdayStart" json:"birthdayStart" validate:"omitempty,datetime=2006-01-02"`
	BirthdayEnd   string `form:"birthdayEnd" json:"birthdayEnd" validate:"omitempty,datetime=2006-01-02"`
}

// ExactQuery must match exactly one client on every attribute given.
type ExactQuery struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	CPF      string `form:"cpf" json:"cpf"`
	Phone    string `form:"phone" json:"phone"`
	Birthday string `form:"birthday" json:"birthday" validate:"omitempty,datetime=2006-01-02"`
}

func (q ExactQuery) IsEmpty() bool {
	return q.Name == "" && q.Email == "" && q.CPF == "" && q.Phone == "" && q.Birthday == ""
}
