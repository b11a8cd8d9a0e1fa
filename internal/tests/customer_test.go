package tests

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"checkout/internal/domain"
	"checkout/internal/service"
)

// ──────────────────────────────────────────────
// 5. CUSTOMER VERIFICATION
// ──────────────────────────────────────────────

func TestVerifyCustomer_User(t *testing.T) {
	t.Parallel()

	customers := NewMockCustomerRepository()
	customers.UserLIDs["628123456789"] = "1234567890@lid"
	customers.PushNames["1234567890@lid"] = "Shiro"
	svc := service.NewCustomerService(customers, nil, zap.NewNop())

	got, err := svc.Verify(context.Background(), "628123456789", domain.CustomerTypeUser)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got.Name != "Shiro" || got.LID != "1234567890@lid" || got.PhoneNumber != "628123456789" {
		t.Errorf("unexpected customer %+v", got)
	}
}

func TestVerifyCustomer_UserWithoutPushName(t *testing.T) {
	t.Parallel()

	customers := NewMockCustomerRepository()
	customers.UserLIDs["628123456789"] = "1234567890@lid"
	customers.PushNameError = ErrMockTimeout
	svc := service.NewCustomerService(customers, nil, zap.NewNop())

	got, err := svc.Verify(context.Background(), "628123456789", domain.CustomerTypeUser)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got.Name != "User" {
		t.Errorf("expected default name, got %q", got.Name)
	}
}

func TestVerifyCustomer_Group(t *testing.T) {
	t.Parallel()

	customers := NewMockCustomerRepository()
	customers.Groups["120363000000000000@g.us"] = "Shiroine Squad"
	svc := service.NewCustomerService(customers, nil, zap.NewNop())

	got, err := svc.Verify(context.Background(), "120363000000000000@g.us", domain.CustomerTypeGroup)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got.Name != "Shiroine Squad" || got.ID != "120363000000000000@g.us" {
		t.Errorf("unexpected customer %+v", got)
	}
}

func TestVerifyCustomer_Failures(t *testing.T) {
	t.Parallel()

	customers := NewMockCustomerRepository()

	testCases := []struct {
		name       string
		svc        *service.CustomerService
		identifier string
		typ        string
		wantErr    error
	}{
		{"unknown user", service.NewCustomerService(customers, nil, nil), "628000", domain.CustomerTypeUser, service.ErrUserNotFound},
		{"unknown group", service.NewCustomerService(customers, nil, nil), "0@g.us", domain.CustomerTypeGroup, service.ErrGroupNotFound},
		{"blank identifier", service.NewCustomerService(customers, nil, nil), "  ", domain.CustomerTypeUser, service.ErrMissingIdentifier},
		{"bad type", service.NewCustomerService(customers, nil, nil), "628000", "admin", service.ErrInvalidCustomerType},
		{"no database", service.NewCustomerService(nil, nil, nil), "628000", domain.CustomerTypeUser, service.ErrDatabaseUnavailable},
	}

	for _, tc := range testCases {
		_, err := tc.svc.Verify(context.Background(), tc.identifier, tc.typ)
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: expected %v, got: %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestVerifyCustomer_CachedLookup(t *testing.T) {
	t.Parallel()

	customers := NewMockCustomerRepository()
	customers.Groups["120363000000000000@g.us"] = "Shiroine Squad"
	cache := NewMockCustomerCache()
	svc := service.NewCustomerService(customers, cache, zap.NewNop())

	if _, err := svc.Verify(context.Background(), "120363000000000000@g.us", domain.CustomerTypeGroup); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	delete(customers.Groups, "120363000000000000@g.us")

	got, err := svc.Verify(context.Background(), "120363000000000000@g.us", domain.CustomerTypeGroup)
	if err != nil {
		t.Fatalf("expected cached customer, got: %v", err)
	}
	if got.Name != "Shiroine Squad" {
		t.Errorf("unexpected customer %+v", got)
	}

	if _, err := svc.Verify(context.Background(), "628000", domain.CustomerTypeUser); !errors.Is(err, service.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got: %v", err)
	}
	if cache.Len() != 1 {
		t.Errorf("expected only found customers cached, got %d entries", cache.Len())
	}
}

// ──────────────────────────────────────────────
// 6. SERVER-SIDE HISTORY
// ──────────────────────────────────────────────

func TestHistoryList_Pagination(t *testing.T) {
	t.Parallel()

	history := NewMockHistoryRepository()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 23; i++ {
		history.AddTransaction(&domain.Transaction{
			Reference:     fmt.Sprintf("DEV-T%04d", i),
			MerchantRef:   fmt.Sprintf("PREMIUM-%d-abcdefg", i),
			CustomerPhone: "628123456789",
			Status:        domain.TransactionStatusUnpaid,
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
			UpdatedAt:     base.Add(time.Duration(i) * time.Hour),
		})
	}
	svc := service.NewHistoryService(history)

	first, err := svc.List(context.Background(), service.HistoryRequest{Identifier: "628123456789", Type: "user"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if first.Page != 1 || first.TotalCount != 23 || first.TotalPages != 3 {
		t.Errorf("unexpected page metadata %+v", first)
	}
	if !first.HasNext || first.HasPrevious {
		t.Error("expected next but no previous on first page")
	}
	if len(first.History) != service.HistoryPerPage || first.History[0].Reference != "DEV-T0023" {
		t.Error("expected newest ten first")
	}

	last, err := svc.List(context.Background(), service.HistoryRequest{Identifier: "628123456789", Type: "user", Page: 3})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(last.History) != 3 || last.HasNext || !last.HasPrevious {
		t.Errorf("unexpected last page %+v", last)
	}
}

func TestHistoryList_NoDatabase(t *testing.T) {
	t.Parallel()

	svc := service.NewHistoryService(nil)
	if svc.Enabled() {
		t.Error("expected history disabled")
	}
	_, err := svc.List(context.Background(), service.HistoryRequest{Identifier: "628123456789", Type: "user"})
	if !errors.Is(err, service.ErrDatabaseUnavailable) {
		t.Fatalf("expected ErrDatabaseUnavailable, got: %v", err)
	}
}
