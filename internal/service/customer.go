package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"checkout/internal/domain"
	internalRedis "checkout/internal/redis"
	"checkout/internal/repository"
)

const defaultPushName = "User"

// CustomerService resolves bot users and groups before checkout.
type CustomerService struct {
	customers repository.CustomerRepository
	cache     internalRedis.CustomerCache
	logger    *zap.Logger
}

// NewCustomerService creates a new CustomerService. customers may be nil
// when no database is configured; cache may be nil when Redis is not.
func NewCustomerService(customers repository.CustomerRepository, cache internalRedis.CustomerCache, logger *zap.Logger) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{customers: customers, cache: cache, logger: logger}
}

// Verify looks up a phone number or group ID in the bot's tables.
func (s *CustomerService) Verify(ctx context.Context, identifier, customerType string) (*domain.Customer, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrMissingIdentifier
	}
	if customerType != domain.CustomerTypeUser && customerType != domain.CustomerTypeGroup {
		return nil, ErrInvalidCustomerType
	}
	if s.customers == nil {
		return nil, ErrDatabaseUnavailable
	}

	if s.cache != nil {
		cached, err := s.cache.GetCustomer(ctx, customerType, identifier)
		if err != nil {
			s.logger.Warn("customer cache read failed", zap.String("identifier", identifier), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	customer, err := s.lookup(ctx, identifier, customerType)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetCustomer(ctx, identifier, customer); err != nil {
			s.logger.Warn("customer cache write failed", zap.String("identifier", identifier), zap.Error(err))
		}
	}
	return customer, nil
}

func (s *CustomerService) lookup(ctx context.Context, identifier, customerType string) (*domain.Customer, error) {
	if customerType == domain.CustomerTypeGroup {
		name, err := s.customers.GroupName(ctx, identifier)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrGroupNotFound
			}
			return nil, err
		}
		return &domain.Customer{Type: domain.CustomerTypeGroup, ID: identifier, Name: name}, nil
	}

	lid, err := s.customers.UserLID(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	name, err := s.customers.PushName(ctx, lid)
	if err != nil {
		s.logger.Warn("failed to read push name", zap.String("lid", lid), zap.Error(err))
	}
	if name == "" {
		name = defaultPushName
	}

	return &domain.Customer{
		Type:        domain.CustomerTypeUser,
		PhoneNumber: identifier,
		LID:         lid,
		Name:        name,
	}, nil
}
