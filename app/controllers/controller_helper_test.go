package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/quota"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/usercontext"
)

func TestCanAccessEnrollment(t *testing.T) {
	enrollment := &models.Enrollment{ParentUserID: 7, CoachUserID: 9}

	assert.True(t, canAccessEnrollment(usercontext.UserContext{UserID: 7}, enrollment), "parent")
	assert.True(t, canAccessEnrollment(usercontext.UserContext{UserID: 9}, enrollment), "coach")
	assert.True(t, canAccessEnrollment(usercontext.UserContext{UserID: 3, IsAdmin: true}, enrollment), "admin")

	// A different parent must not reach another family's enrollment, and
	// through it their calls or quota.
	assert.False(t, canAccessEnrollment(usercontext.UserContext{UserID: 3}, enrollment), "stranger")
	assert.False(t, canAccessEnrollment(usercontext.UserContext{UserID: 3, Role: models.ROLE_COACH}, enrollment), "other coach")
}

func TestFormatTimePtr(t *testing.T) {
	assert.Nil(t, formatTimePtr(nil))

	now := time.Date(2025, 8, 1, 12, 34, 56, 0, time.Local)
	formatted := formatTimePtr(&now)
	assert.IsType(t, "", formatted)

	expected := now.UTC().Format(time.RFC3339)
	assert.Equal(t, expected, formatted)
}

func TestCallJSON(t *testing.T) {
	requested := time.Date(2025, 8, 10, 9, 30, 0, 0, time.UTC)
	completed := requested.Add(30 * time.Minute)
	call := &models.ParentCall{
		UUID:        "call-1",
		Status:      models.CallStatusCompleted,
		RequestedAt: requested,
		CompletedAt: &completed,
		Notes:       "went well",
	}

	out := callJSON(call)
	assert.Equal(t, "call-1", out["uuid"])
	assert.Equal(t, models.CallStatusCompleted, out["status"])
	assert.Equal(t, "2025-08-10T09:30:00Z", out["requested_at"])
	assert.Equal(t, "2025-08-10T10:00:00Z", out["completed_at"])

	scheduled := &models.ParentCall{UUID: "call-2", Status: models.CallStatusScheduled, RequestedAt: requested}
	assert.Nil(t, callJSON(scheduled)["completed_at"])
}

func TestQuotaJSON(t *testing.T) {
	out := quotaJSON(quota.Snapshot{Used: 1, Max: 3, Remaining: 2})
	assert.Equal(t, 1, out["used"])
	assert.Equal(t, 3, out["max"])
	assert.Equal(t, 2, out["remaining"])
}
