package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"fithub/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// Directory stores accounts. FindAccount returns nil without error when
// nobody owns the email; SaveAccount fails with models.ErrEmailTaken on duplicates.
type Directory interface {
	FindAccount(ctx context.Context, email string) (*models.Account, error)
	SaveAccount(ctx context.Context, acc models.Account) error
}

// AuthService handles sign up and sign in for the session.
type AuthService struct {
	dir   Directory
	store *Store
	cost  int
}

func NewAuthService(dir Directory, store *Store, cost int) *AuthService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{dir: dir, store: store, cost: cost}
}

type SignUpInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	City     string `json:"city"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an account and opens a session for it.
func (a *AuthService) SignUp(ctx context.Context, in SignUpInput) (models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" {
		return models.User{}, models.NewValidationError("name", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, models.NewValidationError("email", "is invalid")
	}
	if len(in.Password) < minPasswordLength {
		return models.User{}, models.NewValidationError("password", fmt.Sprintf("must have at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), a.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	acc := models.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		City:         strings.TrimSpace(in.City),
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := a.dir.SaveAccount(ctx, acc); err != nil {
		return models.User{}, err
	}
	u := acc.User()
	if err := a.store.SetUser(ctx, &u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// SignIn verifies the credentials and opens a session.
func (a *AuthService) SignIn(ctx context.Context, email, password string) (models.User, error) {
	acc, err := a.dir.FindAccount(ctx, normalizeEmail(email))
	if err != nil {
		return models.User{}, fmt.Errorf("find account: %w", err)
	}
	if acc == nil {
		return models.User{}, models.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return models.User{}, models.ErrInvalidCredentials
	}
	u := acc.User()
	if err := a.store.SetUser(ctx, &u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (a *AuthService) SignOut(ctx context.Context) error {
	return a.store.SetUser(ctx, nil)
}

// Session returns the signed-in user, if any.
func (a *AuthService) Session() (*models.User, bool) {
	st := a.store.Snapshot()
	if !st.Authenticated() {
		return nil, false
	}
	return st.User, true
}
