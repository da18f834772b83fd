package validate

import "strings"

// Form payloads bound with fiber's BodyParser and checked with Struct.

type RegisterForm struct {
	Username string `form:"username" validate:"required,username"`
	Email    string `form:"email" validate:"required,email,max=100"`
	Password string `form:"password" validate:"required,password"`
	Confirm  string `form:"confirm" validate:"required,eqfield=Password"`
	Role     string `form:"role" validate:"required,oneof=customer marketer"`
}

type LoginForm struct {
	Login    string `form:"login" validate:"required,max=100"`
	Password string `form:"password" validate:"required,max=64"`
}

type ShopForm struct {
	Name           string `form:"name" validate:"required,max=100"`
	Description    string `form:"description" validate:"max=2000"`
	Location       string `form:"location" validate:"max=100"`
	WhatsappNumber string `form:"whatsapp_number" validate:"phone"`
	Logo           string `form:"logo" validate:"omitempty,url,max=500"`
}

type ProductForm struct {
	ShopID      int64  `form:"shop_id" validate:"required,gt=0"`
	CategoryID  int64  `form:"category_id" validate:"gte=0"`
	Name        string `form:"name" validate:"required,max=100"`
	Description string `form:"description" validate:"max=2000"`
	Price       string `form:"price" validate:"required,price"`
	Image       string `form:"image" validate:"omitempty,url,max=500"`
}

type CategoryForm struct {
	Name string `form:"name" validate:"required,max=50"`
}

type RatingForm struct {
	Value   int    `form:"value" validate:"gte=1,lte=5"`
	Comment string `form:"comment" validate:"max=500"`
}

type ProfileForm struct {
	Username string `form:"username" validate:"required,username"`
	Email    string `form:"email" validate:"required,email,max=100"`
}

type PasswordForm struct {
	Current string `form:"current_password" validate:"required,max=64"`
	New     string `form:"new_password" validate:"required,password"`
	Confirm string `form:"confirm" validate:"required,eqfield=New"`
}

// AdminUserForm creates or edits any account. Password may be left empty
// when editing.
type AdminUserForm struct {
	Username   string `form:"username" validate:"required,username"`
	Email      string `form:"email" validate:"required,email,max=100"`
	Password   string `form:"password" validate:"omitempty,password"`
	Role       string `form:"role" validate:"required,oneof=customer marketer admin"`
	IsApproved bool   `form:"is_approved"`
}

// Trim strips surrounding whitespace from free-text fields before validation.
func (f *RegisterForm) Trim() {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	f.Role = strings.TrimSpace(f.Role)
}

func (f *ShopForm) Trim() {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.Location = strings.TrimSpace(f.Location)
	f.WhatsappNumber = strings.TrimSpace(f.WhatsappNumber)
	f.Logo = strings.TrimSpace(f.Logo)
}

func (f *ProductForm) Trim() {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.Price = strings.TrimSpace(f.Price)
	f.Image = strings.TrimSpace(f.Image)
}

func (f *CategoryForm) Trim() { f.Name = strings.TrimSpace(f.Name) }

func (f *RatingForm) Trim() { f.Comment = strings.TrimSpace(f.Comment) }

func (f *ProfileForm) Trim() {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
}

func (f *AdminUserForm) Trim() {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	f.Role = strings.TrimSpace(f.Role)
}
