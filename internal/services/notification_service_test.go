package services

import (
	"testing"

	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/testutil"
)

func createNotification(t *testing.T, db *gorm.DB, userID string, notifType models.NotificationType, read bool) *models.Notification {
	t.Helper()

	n := &models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   "Title",
		Message: "Message",
		IsRead:  read,
	}
	if err := db.Create(n).Error; err != nil {
		t.Fatalf("failed to create notification: %v", err)
	}
	return n
}

func TestGetUserNotifications(t *testing.T) {
	t.Run("newest_first_and_scoped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)

		first := createNotification(t, db, user.ID, models.NotificationBudgetCreated, false)
		second := createNotification(t, db, user.ID, models.NotificationBudgetAlert, false)
		createNotification(t, db, other.ID, models.NotificationBudgetAlert, false)

		result, err := svc.GetUserNotifications(user.ID, pagination.PageRequest{Page: 1, PageSize: 20}, NotificationFilter{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 2 {
			t.Fatalf("expected 2 notifications, got %d", result.TotalItems)
		}
		if result.Data[0].ID != second.ID || result.Data[1].ID != first.ID {
			t.Error("expected notifications newest first")
		}
	})

	t.Run("filters", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db)
		user := testutil.CreateTestUser(t, db)

		createNotification(t, db, user.ID, models.NotificationBudgetAlert, true)
		createNotification(t, db, user.ID, models.NotificationBudgetAlert, false)
		createNotification(t, db, user.ID, models.NotificationBudgetExceeded, false)

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		unread, err := svc.GetUserNotifications(user.ID, page, NotificationFilter{UnreadOnly: true})
		testutil.AssertNoError(t, err)
		if unread.TotalItems != 2 {
			t.Errorf("expected 2 unread, got %d", unread.TotalItems)
		}

		exceeded := models.NotificationBudgetExceeded
		typed, err := svc.GetUserNotifications(user.ID, page, NotificationFilter{Type: &exceeded})
		testutil.AssertNoError(t, err)
		if typed.TotalItems != 1 {
			t.Errorf("expected 1 exceeded notification, got %d", typed.TotalItems)
		}
	})
}

func TestMarkAsRead(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db)
		user := testutil.CreateTestUser(t, db)
		n := createNotification(t, db, user.ID, models.NotificationBudgetAlert, false)

		updated, err := svc.MarkAsRead(user.ID, n.ID)
		testutil.AssertNoError(t, err)
		if !updated.IsRead {
			t.Error("expected notification to be read")
		}

		count, err := svc.CountUnread(user.ID)
		testutil.AssertNoError(t, err)
		if count != 0 {
			t.Errorf("expected 0 unread, got %d", count)
		}
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		n := createNotification(t, db, owner.ID, models.NotificationBudgetAlert, false)

		_, err := svc.MarkAsRead(other.ID, n.ID)
		testutil.AssertAppError(t, err, "NOTIFICATION_NOT_FOUND")
	})
}

func TestMarkAllAsRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewNotificationService(db)
	user := testutil.CreateTestUser(t, db)

	createNotification(t, db, user.ID, models.NotificationBudgetAlert, false)
	createNotification(t, db, user.ID, models.NotificationBudgetAlert, false)
	createNotification(t, db, user.ID, models.NotificationBudgetAlert, true)

	changed, err := svc.MarkAllAsRead(user.ID)
	testutil.AssertNoError(t, err)
	if changed != 2 {
		t.Errorf("expected 2 notifications changed, got %d", changed)
	}

	count, err := svc.CountUnread(user.ID)
	testutil.AssertNoError(t, err)
	if count != 0 {
		t.Errorf("expected 0 unread, got %d", count)
	}
}
