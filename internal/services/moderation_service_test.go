package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/nyaynow/confessions-backend/internal/dto"
	"github.com/nyaynow/confessions-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Report{}))
	return db
}

func TestFilterContent(t *testing.T) {
	ms := NewModerationService(nil)

	cases := []struct {
		text   string
		ok     bool
		reason string
	}{
		{"My landlord won't return my deposit of Rs 50,000.", true, ""},
		{"I was the victim of a phishing scam and lost money", true, ""},
		{"Filed FIR under IPC 420 and CRPC 156(3)", true, ""},
		{"Email me at someone@example.com", false, "contact_info_not_allowed"},
		{"Call 98765 43210 please", false, "contact_info_not_allowed"},
		{"Call +91 9876543210", false, "contact_info_not_allowed"},
		{"Rent was raised in 2021 2022 2023 without notice", true, ""},
		{"Cheque of Rs 1500000000 bounced under Section 138", true, ""},
		{"Claim of Rs 9999 pending since 2019-2020", true, ""},
		{"Call 09876543210 after six", false, "contact_info_not_allowed"},
		{"My Aadhaar is 2345 6789 0123", false, "identity_number_not_allowed"},
		{"Aadhaar 234567890123 was linked", false, "identity_number_not_allowed"},
		{"PAN ABCDE1234F was misused", false, "identity_number_not_allowed"},
		{"see https://example.com/me", false, "url_not_allowed"},
		{"this is bullshit", false, "inappropriate_language"},
	}
	for _, tc := range cases {
		ok, reason := ms.FilterContent(tc.text)
		assert.Equal(t, tc.ok, ok, tc.text)
		assert.Equal(t, tc.reason, reason, tc.text)
	}
	assert.Contains(t, ms.GetRejectionMessage("contact_info_not_allowed"), "reveal")
	assert.Contains(t, ms.GetRejectionMessage("nope"), "guidelines")
}

func TestCreateReport(t *testing.T) {
	db := newTestDB(t)
	ms := NewModerationService(db)
	known := uuid.New()
	ms.RegisterTarget("confession", func(_ context.Context, id uuid.UUID) (bool, error) {
		return id == known, nil
	})
	ctx := context.Background()
	reporter := uuid.New()

	report, err := ms.CreateReport(ctx, reporter, &dto.CreateReportRequest{
		ContentType: "confession", ContentID: known, Reason: "  contains a phone number ",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", report.Status)
	assert.Equal(t, "contains a phone number", report.Reason)

	_, err = ms.CreateReport(ctx, reporter, &dto.CreateReportRequest{ContentType: "user", ContentID: known, Reason: "x"})
	assert.ErrorIs(t, err, ErrUnknownTarget)

	_, err = ms.CreateReport(ctx, reporter, &dto.CreateReportRequest{ContentType: "confession", ContentID: uuid.New(), Reason: "x"})
	assert.ErrorIs(t, err, ErrReportTarget)

	_, err = ms.CreateReport(ctx, reporter, &dto.CreateReportRequest{ContentType: "confession", ContentID: known, Reason: " "})
	assert.ErrorIs(t, err, ErrInvalidReport)
}

func TestListAndActionReports(t *testing.T) {
	db := newTestDB(t)
	ms := NewModerationService(db)
	ms.RegisterTarget("reply", func(context.Context, uuid.UUID) (bool, error) { return true, nil })
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		r, err := ms.CreateReport(ctx, uuid.New(), &dto.CreateReportRequest{
			ContentType: "reply", ContentID: uuid.New(), Reason: "abusive",
		})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	require.NoError(t, ms.ActionReport(ctx, ids[0], &dto.ActionReportRequest{Status: "dismissed", AdminNote: "fine"}))
	assert.ErrorIs(t, ms.ActionReport(ctx, ids[1], &dto.ActionReportRequest{Status: "deleted"}), ErrInvalidAction)
	assert.ErrorIs(t, ms.ActionReport(ctx, uuid.New(), &dto.ActionReportRequest{Status: "reviewed"}), ErrReportNotFound)

	pending, total, err := ms.ListReports(ctx, "pending", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, pending, 2)

	all, total, err := ms.ListReports(ctx, "", 1, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 1)
}
