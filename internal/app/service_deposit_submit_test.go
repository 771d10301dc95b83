package app

import (
	"context"
	"errors"
	"testing"

	"github.com/coinvest/funding-service/internal/domain"
	"github.com/coinvest/funding-service/internal/store"
	"github.com/coinvest/funding-service/pkg/rabbitmq"
	"github.com/google/uuid"
)

type depositSubmitRepoStub struct {
	store.Repository

	profile *domain.Profile
	plan    *domain.InvestmentPlan
	method  *domain.PaymentMethod

	createCalled bool
	created      *domain.Deposit
}

func (s *depositSubmitRepoStub) FindProfileByID(ctx context.Context, profileID uuid.UUID) (*domain.Profile, error) {
	if s.profile == nil || s.profile.ID != profileID {
		return nil, store.ErrProfileNotFound
	}
	return s.profile, nil
}

func (s *depositSubmitRepoStub) FindPlanByID(ctx context.Context, planID uuid.UUID) (*domain.InvestmentPlan, error) {
	if s.plan == nil || s.plan.ID != planID {
		return nil, store.ErrPlanNotFound
	}
	return s.plan, nil
}

func (s *depositSubmitRepoStub) FindPaymentMethodByID(ctx context.Context, methodID uuid.UUID) (*domain.PaymentMethod, error) {
	if s.method == nil || s.method.ID != methodID {
		return nil, store.ErrPaymentMethodNotFound
	}
	return s.method, nil
}

func (s *depositSubmitRepoStub) CreateDeposit(ctx context.Context, dep *domain.Deposit) error {
	s.createCalled = true
	s.created = dep
	return nil
}

type recordingPublisherStub struct {
	events []rabbitmq.AdminNotificationEvent
}

func (p *recordingPublisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	return nil
}

func (p *recordingPublisherStub) PublishAdminNotification(ctx context.Context, event rabbitmq.AdminNotificationEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisherStub) Close() {}

func newDepositSubmitStub() *depositSubmitRepoStub {
	return &depositSubmitRepoStub{
		profile: &domain.Profile{ID: uuid.New(), Role: domain.RoleUser, IsActive: true},
		plan:    &domain.InvestmentPlan{ID: uuid.New(), Name: "Starter", Price: 10000},
		method:  &domain.PaymentMethod{ID: uuid.New(), Type: domain.PaymentMethodTypeBank, Name: "Wire", Enabled: true},
	}
}

func TestSubmitDeposit_CreatesPendingRecordAndNotifies(t *testing.T) {
	repo := newDepositSubmitStub()
	publisher := &recordingPublisherStub{}
	svc := NewService(repo, publisher)

	deposit, err := svc.SubmitDeposit(context.Background(), repo.profile.ID, domain.CreateDepositRequest{
		PlanID:          repo.plan.ID,
		PaymentMethodID: repo.method.ID,
		Amount:          50000,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if deposit.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %q", deposit.Status)
	}
	if !repo.createCalled {
		t.Fatal("expected deposit create to be invoked")
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected one admin notification, got %d", len(publisher.events))
	}
	if publisher.events[0].Kind != "deposit_created" {
		t.Fatalf("expected deposit_created notification, got %q", publisher.events[0].Kind)
	}
	if publisher.events[0].RecordID != deposit.ID {
		t.Fatal("expected notification to reference the created deposit")
	}
}

func TestSubmitDeposit_RejectsNonPositiveAmount(t *testing.T) {
	repo := newDepositSubmitStub()
	svc := NewService(repo, nil)

	_, err := svc.SubmitDeposit(context.Background(), repo.profile.ID, domain.CreateDepositRequest{
		PlanID:          repo.plan.ID,
		PaymentMethodID: repo.method.ID,
		Amount:          0,
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if repo.createCalled {
		t.Fatal("did not expect a create attempt for an invalid amount")
	}
}

func TestSubmitDeposit_RejectsDisabledPaymentMethod(t *testing.T) {
	repo := newDepositSubmitStub()
	repo.method.Enabled = false
	svc := NewService(repo, nil)

	_, err := svc.SubmitDeposit(context.Background(), repo.profile.ID, domain.CreateDepositRequest{
		PlanID:          repo.plan.ID,
		PaymentMethodID: repo.method.ID,
		Amount:          50000,
	})
	if !errors.Is(err, ErrPaymentMethodDisabled) {
		t.Fatalf("expected ErrPaymentMethodDisabled, got %v", err)
	}
}

func TestSubmitDeposit_RejectsUnknownPlan(t *testing.T) {
	repo := newDepositSubmitStub()
	svc := NewService(repo, nil)

	_, err := svc.SubmitDeposit(context.Background(), repo.profile.ID, domain.CreateDepositRequest{
		PlanID:          uuid.New(),
		PaymentMethodID: repo.method.ID,
		Amount:          50000,
	})
	if !errors.Is(err, store.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}
