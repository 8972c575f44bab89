package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThreadLastActivity(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	lastMsg := created.Add(2 * time.Hour)

	assert.Equal(t, lastMsg, Thread{CreatedAt: created, UpdatedAt: updated, LastMessageAt: lastMsg}.LastActivity())
	assert.Equal(t, updated, Thread{CreatedAt: created, UpdatedAt: updated}.LastActivity())
	assert.Equal(t, created, Thread{CreatedAt: created}.LastActivity())
}

func TestThreadCounterparty(t *testing.T) {
	thread := Thread{
		Customer: Participant{ID: "cust-1", Type: ParticipantCustomer},
		Shop:     Participant{ID: "shop-1", Type: ParticipantShop},
	}

	assert.Equal(t, "shop-1", thread.Counterparty("cust-1").ID)
	assert.Equal(t, "cust-1", thread.Counterparty("shop-1").ID)
}

func TestSessionHasRole(t *testing.T) {
	assert.True(t, Session{Role: RoleSeller}.HasRole(RoleSeller))
	assert.False(t, Session{Role: RoleUser}.HasRole(RoleSeller))

	// Older session shapes carry flags instead of a role label.
	assert.True(t, Session{Role: RoleUser, IsVendor: true}.HasRole(RoleVendor))
	assert.True(t, Session{Role: RoleUser, IsShopAdmin: true}.HasRole(RoleShopAdmin))
	assert.False(t, Session{Role: RoleUser}.HasRole(RoleVendor))

	assert.True(t, Session{Role: RoleUser}.HasAnyRole(nil))
	assert.True(t, Session{Role: RoleUser}.HasAnyRole([]Role{RoleAdmin, RoleUser}))
	assert.False(t, Session{Role: RoleUser}.HasAnyRole([]Role{RoleAdmin, RoleSeller}))
}
