package models

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type User struct {
	ID        uint64 `gorm:"primaryKey" json:"id"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
	Username  string `gorm:"type:varchar(100);index:uniq_username,unique;not null" json:"username"`
	Email     string `gorm:"type:varchar(150)" json:"email"`
	Password  string `gorm:"type:varchar(128);not null" json:"-"`
}

func (u *User) BeforeSave(tx *gorm.DB) (err error) {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return
}

func (u *User) SetPassword(plainTextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

func (u *User) CheckPassword(plainTextPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plainTextPassword)) == nil
}

func NewUser(username, email, plainTextPassword string) (*User, error) {
	username = strings.TrimSpace(username)
	if len(username) < MinUsernameLength {
		return nil, errors.New("username must be at least 3 characters")
	}
	if len(plainTextPassword) < MinPasswordLength {
		return nil, errors.New("password must be at least 6 characters")
	}
	u := &User{Username: username, Email: email}
	if err := u.SetPassword(plainTextPassword); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) FindUser(ctx context.Context, id uint64) (*User, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	user := User{}
	if err = conn.First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	user := User{}
	if err = conn.First(&user, "username = ?", strings.TrimSpace(username)).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *User) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	return conn.Create(user).Error
}

// Login returns the user if the password matches.
func (s *Store) Login(ctx context.Context, username, plainTextPassword string) (*User, error) {
	user, err := s.FindUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.CheckPassword(plainTextPassword) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// EnsureUser creates the user unless one with the same username already exists.
// It reports whether a new account was created.
func (s *Store) EnsureUser(ctx context.Context, username, email, plainTextPassword string) (bool, error) {
	_, err := s.FindUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	user, err := NewUser(username, email, plainTextPassword)
	if err != nil {
		return false, err
	}
	if err = s.CreateUser(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}
