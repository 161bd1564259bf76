package returns

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/helpcenter-backend/internal/common/errors"
	"github.com/dumeirei/helpcenter-backend/internal/common/utils"
	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/repository"
	"github.com/dumeirei/helpcenter-backend/internal/service/notification"
	"github.com/dumeirei/helpcenter-backend/internal/service/returnform"
	"github.com/dumeirei/helpcenter-backend/internal/service/upload"
	"github.com/dumeirei/helpcenter-backend/internal/testutil"
	"github.com/dumeirei/helpcenter-backend/pkg/mail"
)

func newTestService(t *testing.T) (*Service, *mail.MemorySender) {
	t.Helper()
	db := testutil.NewTestDB(t)
	mailer := mail.NewMemorySender()
	svc := NewService(
		repository.NewReturnRequestRepository(db),
		returnform.NewService(repository.NewSettingsRepository(db), nil),
		upload.NewPhotoStore(nil, nil, nil),
		notification.New(mailer, nil, notification.Config{AdminAddress: "sales@subcold.com"}, nil, nil),
		nil,
		nil,
	)
	return svc, mailer
}

func unwanted() *SubmitRequest {
	return &SubmitRequest{
		ReturnReason:    "Unwanted",
		UnwantedReason:  "Changed my mind",
		FullName:        "John Smith",
		Email:           "john@example.com",
		OrderNumber:     "ORD-42",
		PurchaseChannel: "Amazon",
	}
}

func TestSubmit(t *testing.T) {
	svc, mailer := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, unwanted())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Return request submitted successfully", result.Message)

	stored, err := svc.Get(ctx, result.RequestID)
	require.NoError(t, err)
	assert.Equal(t, models.ReturnStatusPending, stored.Status)
	assert.Equal(t, "Changed my mind", utils.SafeString(stored.UnwantedReason))
	assert.Nil(t, stored.Description)
	assert.NotNil(t, stored.PhotoURLs)

	admin := mailer.SentTo("sales@subcold.com")
	require.Len(t, admin, 1)
	assert.Equal(t, "New Return Request #"+notification.ShortReference(result.RequestID)+" - Unwanted", admin[0].Subject)
	customer := mailer.SentTo("john@example.com")
	require.Len(t, customer, 1)
	assert.Equal(t, "Return Request Received - Order ORD-42", customer[0].Subject)
}

func TestSubmit_Validation(t *testing.T) {
	svc, mailer := newTestService(t)
	ctx := context.Background()

	req := unwanted()
	req.OrderNumber = ""
	_, err := svc.Submit(ctx, req)
	assert.True(t, stderrors.Is(err, errors.ErrMissingFields))

	req = unwanted()
	req.Email = "john@"
	_, err = svc.Submit(ctx, req)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidEmail))

	req = unwanted()
	req.UnwantedReason = ""
	_, err = svc.Submit(ctx, req)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrValidation))

	req = unwanted()
	req.ReturnReason = "Damage"
	req.ProductName = "Subcold Pro4 Black"
	_, err = svc.Submit(ctx, req)
	require.Error(t, err)
	assert.Contains(t, errors.GetAppError(err).Message, "photo")

	assert.Empty(t, mailer.Sent())
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, unwanted())
	require.NoError(t, err)

	approved := models.ReturnStatusApproved
	notes := "Label sent"
	updated, err := svc.Update(ctx, result.RequestID, &UpdateRequest{Status: &approved, AdminNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, models.ReturnStatusApproved, updated.Status)
	assert.Equal(t, "Label sent", utils.SafeString(updated.AdminNotes))

	bogus := "shipped"
	_, err = svc.Update(ctx, result.RequestID, &UpdateRequest{Status: &bogus})
	assert.True(t, stderrors.Is(err, errors.ErrValidation))

	list, total, err := svc.List(ctx, 0, 10, &ListFilters{Status: models.ReturnStatusApproved})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, result.RequestID, list[0].ID)

	_, _, err = svc.List(ctx, 0, 10, &ListFilters{Status: "bogus"})
	assert.True(t, stderrors.Is(err, errors.ErrValidation))

	require.NoError(t, svc.Delete(ctx, result.RequestID))
	assert.True(t, stderrors.Is(svc.Delete(ctx, result.RequestID), errors.ErrReturnRequestNotFound))
	_, err = svc.Get(ctx, result.RequestID)
	assert.True(t, stderrors.Is(err, errors.ErrReturnRequestNotFound))
}
