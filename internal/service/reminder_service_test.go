package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"facturas/internal/domain"
	"facturas/internal/service"
	"facturas/mocks"
)

func dueInvoice(days int) domain.Invoice {
	due := time.Now().AddDate(0, 0, days).Format("2006-01-02")
	return domain.Invoice{
		ID:          uuid.New(),
		InvoiceData: domain.InvoiceData{Provider: strPtr("Telmex"), TotalAmount: floatPtr(499), DueDate: &due},
	}
}

func TestReminderService_SendDueReminders(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	invoiceRepo := new(mocks.MockInvoiceRepo)
	sender := new(mocks.MockEmailSender)
	svc := service.NewReminderService(userRepo, invoiceRepo, sender, 7)

	withDue := domain.User{ID: uuid.New(), Email: "ana@example.com", FullName: "Ana", IsActive: true}
	nothingDue := domain.User{ID: uuid.New(), Email: "luis@example.com", IsActive: true}
	userRepo.On("ListActive", mock.Anything).Return([]domain.User{withDue, nothingDue}, nil)

	today := time.Now().Format("2006-01-02")
	to := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	invoiceRepo.On("ListDueBetween", mock.Anything, withDue.ID, today, to).
		Return([]domain.Invoice{dueInvoice(1), dueInvoice(5)}, nil)
	invoiceRepo.On("ListDueBetween", mock.Anything, nothingDue.ID, today, to).Return([]domain.Invoice{}, nil)

	sender.On("SendDueReminder", mock.Anything, "ana@example.com", "Ana", mock.MatchedBy(func(due []domain.UpcomingInvoice) bool {
		return len(due) == 2 && due[0].DaysLeft == 1 && due[1].DaysLeft == 5
	})).Return(nil).Once()

	report, err := svc.SendDueReminders(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.UsersChecked)
	assert.Equal(t, 1, report.UsersNotified)
	assert.Equal(t, 2, report.Invoices)
	assert.Equal(t, 0, report.Failures)
	sender.AssertExpectations(t)
}

func TestReminderService_FailuresDoNotStopTheRun(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	invoiceRepo := new(mocks.MockInvoiceRepo)
	sender := new(mocks.MockEmailSender)
	svc := service.NewReminderService(userRepo, invoiceRepo, sender, 0)

	broken := domain.User{ID: uuid.New(), Email: "a@example.com"}
	bounced := domain.User{ID: uuid.New(), Email: "b@example.com"}
	ok := domain.User{ID: uuid.New(), Email: "c@example.com"}
	userRepo.On("ListActive", mock.Anything).Return([]domain.User{broken, bounced, ok}, nil)

	invoiceRepo.On("ListDueBetween", mock.Anything, broken.ID, mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	invoiceRepo.On("ListDueBetween", mock.Anything, bounced.ID, mock.Anything, mock.Anything).Return([]domain.Invoice{dueInvoice(2)}, nil)
	invoiceRepo.On("ListDueBetween", mock.Anything, ok.ID, mock.Anything, mock.Anything).Return([]domain.Invoice{dueInvoice(0)}, nil)
	sender.On("SendDueReminder", mock.Anything, "b@example.com", "", mock.Anything).Return(errors.New("bounced"))
	sender.On("SendDueReminder", mock.Anything, "c@example.com", "", mock.Anything).Return(nil)

	report, err := svc.SendDueReminders(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, report.UsersChecked)
	assert.Equal(t, 1, report.UsersNotified)
	assert.Equal(t, 2, report.Failures)
}

func TestReminderService_ListUsersError(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	svc := service.NewReminderService(userRepo, new(mocks.MockInvoiceRepo), new(mocks.MockEmailSender), 7)
	userRepo.On("ListActive", mock.Anything).Return(nil, errors.New("db down"))

	_, err := svc.SendDueReminders(context.Background())

	assert.Error(t, err)
}
