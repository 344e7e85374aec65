package services

import (
	"context"
	"testing"

	"fithub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memDirectory struct {
	accounts map[string]models.Account
}

func (d *memDirectory) FindAccount(_ context.Context, email string) (*models.Account, error) {
	acc, ok := d.accounts[email]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

func (d *memDirectory) SaveAccount(_ context.Context, acc models.Account) error {
	if _, ok := d.accounts[acc.Email]; ok {
		return models.ErrEmailTaken
	}
	d.accounts[acc.Email] = acc
	return nil
}

func newTestAuth(t *testing.T) (*AuthService, *Store) {
	t.Helper()
	s := NewStore(newTestEngine(newTestClock()), &memBackend{})
	mustOpen(t, s)
	dir := &memDirectory{accounts: map[string]models.Account{}}
	return NewAuthService(dir, s, bcrypt.MinCost), s
}

func TestSignUpSignInSignOut(t *testing.T) {
	auth, store := newTestAuth(t)
	ctx := context.Background()

	u, err := auth.SignUp(ctx, SignUpInput{Name: "Ana Runner", Email: " Ana@Example.com ", Password: "corrida5k"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.True(t, store.Snapshot().Authenticated())

	_, err = auth.SignUp(ctx, SignUpInput{Name: "Ana", Email: "ana@example.com", Password: "corrida5k"})
	assert.ErrorIs(t, err, models.ErrEmailTaken)

	require.NoError(t, auth.SignOut(ctx))
	_, ok := auth.Session()
	assert.False(t, ok)

	_, err = auth.SignIn(ctx, "ana@example.com", "wrong-pass")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = auth.SignIn(ctx, "nobody@example.com", "corrida5k")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	signedIn, err := auth.SignIn(ctx, "ANA@example.com", "corrida5k")
	require.NoError(t, err)
	assert.Equal(t, u.ID, signedIn.ID)
	session, ok := auth.Session()
	require.True(t, ok)
	assert.Equal(t, "Ana Runner", session.Name)
}

func TestSignUpValidation(t *testing.T) {
	auth, _ := newTestAuth(t)
	tests := []struct {
		name  string
		in    SignUpInput
		field string
	}{
		{"missing name", SignUpInput{Email: "a@b.co", Password: "123456"}, "name"},
		{"bad email", SignUpInput{Name: "A", Email: "nope", Password: "123456"}, "email"},
		{"short password", SignUpInput{Name: "A", Email: "a@b.co", Password: "123"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.SignUp(context.Background(), tt.in)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
