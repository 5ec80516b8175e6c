package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionStatusActive(t *testing.T) {
	tests := []struct {
		name   string
		status SubscriptionStatus
		want   bool
	}{
		{name: "auto renewable", status: SubscriptionAutoRenewable, want: true},
		{name: "not auto renewable", status: SubscriptionNotAutoRenewable, want: true},
		{name: "grace period", status: SubscriptionGracePeriod, want: true},
		{name: "inactive", status: SubscriptionInactive, want: false},
		{name: "expired", status: SubscriptionExpired, want: false},
		{name: "waiting", status: SubscriptionWaiting, want: false},
		{name: "unknown", status: SubscriptionUnknown, want: false},
		{name: "zero value", status: SubscriptionStatus(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Active())
		})
	}
}

func TestSubscriptionStatusActiveOrWaiting(t *testing.T) {
	assert.True(t, SubscriptionWaiting.ActiveOrWaiting())
	assert.True(t, SubscriptionGracePeriod.ActiveOrWaiting())
	assert.False(t, SubscriptionExpired.ActiveOrWaiting())
	assert.False(t, SubscriptionUnknown.ActiveOrWaiting())
}

func TestAccountIsZero(t *testing.T) {
	assert.True(t, Account{}.IsZero())
	assert.True(t, Account{Email: "someone@example.com"}.IsZero())
	assert.False(t, Account{ExternalID: "ext-1"}.IsZero())
}

func TestSubscriptionIsZero(t *testing.T) {
	assert.True(t, Subscription{}.IsZero())
	assert.False(t, Subscription{Status: SubscriptionUnknown}.IsZero())
	assert.False(t, Subscription{ProductID: "monthly"}.IsZero())
}

func TestImportStatusJobKeys(t *testing.T) {
	var inProgress ImportStatus = ImportInProgress{JobID: "job-1", NumberSkipped: 2, OriginalListSize: 5}
	var finished ImportStatus = ImportFinished{JobID: "job-2", SavedIDs: []int64{7}}

	assert.Equal(t, JobID("job-1"), inProgress.Job())
	assert.Equal(t, JobID("job-2"), finished.Job())
}
