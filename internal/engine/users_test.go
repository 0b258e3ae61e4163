package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/models"
)

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		email  string
		pin    string
		wantID string
	}{
		{"admin", "admin@chilipos.com", "1234", "1"},
		{"email is case insensitive", " Emma@ChiliPOS.com ", "2345", "2"},
		{"wrong pin", "admin@chilipos.com", "9999", ""},
		{"unknown email", "ghost@chilipos.com", "1234", ""},
		{"someone else's pin", "admin@chilipos.com", "2345", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := f.eng.Authenticate(ctx, tt.email, tt.pin)
			if tt.wantID == "" {
				assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID)
		})
	}
}

func TestAuthenticate_InactiveUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	off := false
	_, err := f.eng.UpdateUser(ctx, "3", UserPatch{Active: &off})
	require.NoError(t, err)

	_, err = f.eng.Authenticate(ctx, "james@chilipos.com", "3456")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.eng.CreateUser(ctx, UserInput{Name: "Lin", Role: models.RoleCashier, Email: "lin@chilipos.com", PIN: "777777"})
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.NotEmpty(t, user.PINHash)
	assert.NotEqual(t, []byte("777777"), user.PINHash)

	got, err := f.eng.Authenticate(ctx, "lin@chilipos.com", "777777")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	body, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "pin")

	tests := []struct {
		name string
		in   UserInput
		want *apperr.Error
	}{
		{"duplicate email", UserInput{Name: "Em", Role: models.RoleServer, Email: "EMMA@chilipos.com", PIN: "1111"}, apperr.ErrDuplicateEmail},
		{"short pin", UserInput{Name: "Em", Role: models.RoleServer, Email: "em@chilipos.com", PIN: "12"}, apperr.ErrInvalidInput},
		{"missing pin", UserInput{Name: "Em", Role: models.RoleServer, Email: "em@chilipos.com"}, apperr.ErrInvalidInput},
		{"bad role", UserInput{Name: "Em", Role: "Owner", Email: "em@chilipos.com", PIN: "1111"}, apperr.ErrInvalidInput},
		{"bad email", UserInput{Name: "Em", Role: models.RoleServer, Email: "em-at-chilipos", PIN: "1111"}, apperr.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.eng.CreateUser(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pin := "8080"
	role := models.RoleManager
	user, err := f.eng.UpdateUser(ctx, "2", UserPatch{PIN: &pin, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, user.Role)

	_, err = f.eng.Authenticate(ctx, "emma@chilipos.com", "8080")
	assert.NoError(t, err)
	_, err = f.eng.Authenticate(ctx, "emma@chilipos.com", "2345")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	taken := "admin@chilipos.com"
	_, err = f.eng.UpdateUser(ctx, "2", UserPatch{Email: &taken})
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)

	bad := "12a4"
	_, err = f.eng.UpdateUser(ctx, "2", UserPatch{PIN: &bad})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = f.eng.UpdateUser(ctx, "404", UserPatch{})
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestUsersByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	servers, err := f.eng.UsersByRole(ctx, models.RoleServer)
	require.NoError(t, err)
	require.Len(t, servers, 2)
	assert.Equal(t, "Emma Johnson", servers[0].Name)

	all, err := f.eng.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	_, err = f.eng.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}
