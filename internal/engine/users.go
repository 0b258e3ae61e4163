package engine

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
	"restaurant-pos/internal/validation"
)

// UserInput creates a user
type UserInput struct {
	Name   string      `json:"name"`
	Role   models.Role `json:"role"`
	Email  string      `json:"email"`
	PIN    string      `json:"pin"`
	Active *bool       `json:"active,omitempty"`
}

// UserPatch holds the fields to change on a user; nil means keep
type UserPatch struct {
	Name   *string      `json:"name,omitempty"`
	Role   *models.Role `json:"role,omitempty"`
	Email  *string      `json:"email,omitempty"`
	PIN    *string      `json:"pin,omitempty"`
	Active *bool        `json:"active,omitempty"`
}

// HashPIN returns a bcrypt hasher with the given cost
func HashPIN(cost int) store.PINHasher {
	return func(pin string) ([]byte, error) {
		return bcrypt.GenerateFromPassword([]byte(pin), cost)
	}
}

// ListUsers returns all staff
func (e *Engine) ListUsers(ctx context.Context) ([]models.User, error) {
	return e.UsersByRole(ctx, "")
}

// UsersByRole returns staff with one role; "" means all
func (e *Engine) UsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var out []models.User
	err := e.view(ctx, func(r store.Repos) error {
		users, err := r.Users().List(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			if role == "" || u.Role == role {
				out = append(out, u)
			}
		}
		return nil
	})
	return out, err
}

// GetUser returns one user
func (e *Engine) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := e.view(ctx, func(r store.Repos) error {
		var err error
		user, err = getUser(ctx, r, id)
		return err
	})
	return user, err
}

func getUser(ctx context.Context, r store.Repos, id string) (models.User, error) {
	user, ok, err := r.Users().Get(ctx, id)
	if err != nil {
		return user, err
	}
	if !ok {
		return user, apperr.Wrap(apperr.ErrUserNotFound, "user %s not found", id)
	}
	return user, nil
}

// CreateUser adds a staff member; emails are unique ignoring case
func (e *Engine) CreateUser(ctx context.Context, in UserInput) (models.User, error) {
	user := models.User{
		Name:   in.Name,
		Role:   in.Role,
		Email:  strings.TrimSpace(in.Email),
		Active: in.Active == nil || *in.Active,
	}
	if err := firstErr(validation.ValidateUser(user, ""), validation.ValidatePIN(in.PIN)); err != nil {
		return models.User{}, apperr.Invalid(err)
	}
	hash, err := HashPIN(e.opts.BcryptCost)(in.PIN)
	if err != nil {
		return models.User{}, apperr.InternalError("failed to hash pin", err)
	}
	user.PINHash = hash

	err = e.update(ctx, "user_created", func(r store.Repos) ([]models.Event, error) {
		if err := ensureEmailFree(ctx, r, user.Email, ""); err != nil {
			return nil, err
		}
		user.ID = e.newID()
		return nil, r.Users().Save(ctx, user)
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// UpdateUser applies a patch to a staff member
func (e *Engine) UpdateUser(ctx context.Context, id string, patch UserPatch) (models.User, error) {
	var hash []byte
	if patch.PIN != nil {
		if err := validation.ValidatePIN(*patch.PIN); err != nil {
			return models.User{}, apperr.Invalid(err)
		}
		var err error
		if hash, err = HashPIN(e.opts.BcryptCost)(*patch.PIN); err != nil {
			return models.User{}, apperr.InternalError("failed to hash pin", err)
		}
	}

	var user models.User
	err := e.update(ctx, "user_updated", func(r store.Repos) ([]models.Event, error) {
		var err error
		user, err = getUser(ctx, r, id)
		if err != nil {
			return nil, err
		}
		if patch.Name != nil {
			user.Name = *patch.Name
		}
		if patch.Role != nil {
			user.Role = *patch.Role
		}
		if patch.Email != nil {
			user.Email = strings.TrimSpace(*patch.Email)
		}
		if patch.Active != nil {
			user.Active = *patch.Active
		}
		if hash != nil {
			user.PINHash = hash
		}
		if err := validation.ValidateUser(user, ""); err != nil {
			return nil, apperr.Invalid(err)
		}
		if err := ensureEmailFree(ctx, r, user.Email, user.ID); err != nil {
			return nil, err
		}
		return nil, r.Users().Save(ctx, user)
	})
	return user, err
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureEmailFree(ctx context.Context, r store.Repos, email, selfID string) error {
	users, err := r.Users().List(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.ID != selfID && strings.EqualFold(u.Email, email) {
			return apperr.Wrap(apperr.ErrDuplicateEmail, "email %s already in use", email)
		}
	}
	return nil
}

// Authenticate returns the active user matching email and pin. This is a
// staff identity check for attribution, not an access control layer.
func (e *Engine) Authenticate(ctx context.Context, email, pin string) (models.User, error) {
	users, err := e.ListUsers(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if !strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			continue
		}
		if !u.Active {
			break
		}
		err := bcrypt.CompareHashAndPassword(u.PINHash, []byte(pin))
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return models.User{}, apperr.InternalError("failed to check pin", err)
		}
		break
	}
	return models.User{}, apperr.ErrInvalidCredentials
}
