package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/ds124wfegd/ticket-marketplace/internal/database/postgres"
	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type userService struct {
	store repository.Store
}

func NewUserService(store repository.Store) UserService {
	return &userService{store: store}
}

// UpsertUser registers the user on first sign-in with the default role.
func (s *userService) UpsertUser(ctx context.Context, req *UpsertUserRequest) (*entity.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", entity.ErrValidation)
	}

	user := &entity.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(req.Name),
		PhotoURL:  req.PhotoURL,
		Role:      entity.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Repositories().Users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, email string) (*entity.User, error) {
	return s.store.Repositories().Users.GetByEmail(ctx, email)
}

func (s *userService) GetRole(ctx context.Context, email string) (entity.Role, error) {
	user, err := s.store.Repositories().Users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return s.store.Repositories().Users.GetAll(ctx)
}

func (s *userService) UpdateRole(ctx context.Context, email string, role entity.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", entity.ErrValidation, role)
	}
	if err := s.store.Repositories().Users.UpdateRole(ctx, email, role); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"email": email, "role": role}).Info("User role updated")
	return nil
}

func (s *userService) MarkFraud(ctx context.Context, email string) error {
	var rejected int64
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		user, err := repos.Users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user.Role != entity.RoleVendor {
			return fmt.Errorf("%w: only vendors can be marked as fraud", entity.ErrValidation)
		}
		if err := repos.Users.SetFraud(ctx, email, true); err != nil {
			return err
		}

		rejected, err = repos.Tickets.UpdateStatusByVendor(ctx, email, entity.TicketStatusRejected)
		return err
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"email":            email,
		"tickets_rejected": rejected,
	}).Warn("Vendor marked as fraud")
	return nil
}
