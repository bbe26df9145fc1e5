package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/ds124wfegd/ticket-marketplace/internal/database/postgres"
	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type vendorService struct {
	store repository.Store
}

func NewVendorService(store repository.Store) VendorService {
	return &vendorService{store: store}
}

// Apply files a vendor application; one per email.
func (s *vendorService) Apply(ctx context.Context, email string, req *VendorApplicationRequest) (*entity.Vendor, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", entity.ErrValidation)
	}

	repos := s.store.Repositories()
	if _, err := repos.Vendors.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: vendor application for %s already exists", entity.ErrConflict, email)
	} else if !errors.Is(err, entity.ErrNotFound) {
		return nil, err
	}

	vendor := &entity.Vendor{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(req.Name),
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		Status:    entity.VendorStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := repos.Vendors.Create(ctx, vendor); err != nil {
		return nil, err
	}

	logrus.WithField("email", email).Info("Vendor application received")
	return vendor, nil
}

func (s *vendorService) List(ctx context.Context, status entity.VendorStatus) ([]*entity.Vendor, error) {
	return s.store.Repositories().Vendors.List(ctx, status)
}

// UpdateStatus approves or rejects an application. Approval promotes the
// applicant to the vendor role.
func (s *vendorService) UpdateStatus(ctx context.Context, id string, status entity.VendorStatus) error {
	if err := validateID("vendor", id); err != nil {
		return err
	}
	if status != entity.VendorStatusApproved && status != entity.VendorStatusRejected {
		return fmt.Errorf("%w: status must be approved or rejected", entity.ErrValidation)
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		vendor, err := repos.Vendors.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := repos.Vendors.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		if status == entity.VendorStatusApproved {
			if err := repos.Users.UpdateRole(ctx, vendor.Email, entity.RoleVendor); err != nil {
				return err
			}
		}

		logrus.WithFields(logrus.Fields{
			"vendor_id": id,
			"email":     vendor.Email,
			"status":    status,
		}).Info("Vendor application reviewed")
		return nil
	})
}
