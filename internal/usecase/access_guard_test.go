package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shoplink/internal/domain/entity"
)

func TestEvaluateAccessTruthTable(t *testing.T) {
	anon := entity.Session{}
	user := entity.Session{LoggedIn: true, Role: entity.RoleUser}
	seller := entity.Session{LoggedIn: true, Role: entity.RoleSeller}

	single := []entity.Role{entity.RoleSeller}
	set := []entity.Role{entity.RoleVendor, entity.RoleShopAdmin}

	cases := []struct {
		name     string
		input    GuardInput
		session  entity.Session
		access   bool
		redirect RedirectTarget
	}{
		// Logged out: public pages only.
		{"anon, public", GuardInput{}, anon, true, RedirectNone},
		{"anon, single required", GuardInput{RequiredRoles: single}, anon, false, RedirectLogin},
		{"anon, set required", GuardInput{RequiredRoles: set}, anon, false, RedirectLogin},
		{"anon, exclusion only", GuardInput{ExcludedRoles: single}, anon, true, RedirectNone},
		{"anon, set exclusion only", GuardInput{ExcludedRoles: set}, anon, true, RedirectNone},

		// Logged in, vacuous cases.
		{"user, public", GuardInput{}, user, true, RedirectNone},
		{"user, no exclusion match", GuardInput{ExcludedRoles: single}, user, true, RedirectNone},

		// Required role membership.
		{"seller, single required", GuardInput{RequiredRoles: single}, seller, true, RedirectNone},
		{"user, single required", GuardInput{RequiredRoles: single}, user, false, RedirectHome},
		{"user, set required", GuardInput{RequiredRoles: set}, user, false, RedirectHome},

		// Exclusions.
		{"seller, excluded single", GuardInput{ExcludedRoles: single}, seller, false, RedirectDashboard},
		{"seller, excluded set", GuardInput{ExcludedRoles: []entity.Role{entity.RoleSeller, entity.RoleAdmin}}, seller, false, RedirectDashboard},
		{"seller, required and excluded", GuardInput{RequiredRoles: single, ExcludedRoles: single}, seller, false, RedirectDashboard},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := EvaluateAccess(tc.input, tc.session)
			assert.Equal(t, tc.access, decision.HasAccess)
			assert.Equal(t, tc.redirect, decision.Redirect)
			if !tc.access {
				assert.NotEmpty(t, decision.Message)
			}
		})
	}
}

func TestEvaluateAccessDenialNamesRoles(t *testing.T) {
	decision := EvaluateAccess(
		GuardInput{RequiredRoles: []entity.Role{entity.RoleVendor, entity.RoleShopAdmin}},
		entity.Session{LoggedIn: true, Role: entity.RoleUser},
	)

	assert.False(t, decision.HasAccess)
	assert.Equal(t, RedirectHome, decision.Redirect)
	assert.Contains(t, decision.Message, "VENDOR or SHOP ADMIN")
}

func TestEvaluateAccessHonorsLegacyFlags(t *testing.T) {
	legacyVendor := entity.Session{LoggedIn: true, Role: entity.RoleUser, IsVendor: true}

	decision := EvaluateAccess(GuardInput{RequiredRoles: []entity.Role{entity.RoleVendor}}, legacyVendor)
	assert.True(t, decision.HasAccess)

	decision = EvaluateAccess(GuardInput{ExcludedRoles: []entity.Role{entity.RoleVendor}}, legacyVendor)
	assert.False(t, decision.HasAccess)
	assert.Equal(t, RedirectDashboard, decision.Redirect)
}

func TestScheduleRedirectFires(t *testing.T) {
	fired := make(chan RedirectTarget, 1)

	ScheduleRedirect(context.Background(), 10*time.Millisecond, RedirectHome, func(target RedirectTarget) {
		fired <- target
	})

	select {
	case target := <-fired:
		assert.Equal(t, RedirectHome, target)
	case <-time.After(time.Second):
		t.Fatal("redirect never fired")
	}
}

func TestScheduleRedirectStopCancels(t *testing.T) {
	fired := make(chan RedirectTarget, 1)

	stop := ScheduleRedirect(context.Background(), 50*time.Millisecond, RedirectHome, func(target RedirectTarget) {
		fired <- target
	})
	stop()
	stop() // stopping twice is fine

	select {
	case <-fired:
		t.Fatal("redirect fired after stop")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestScheduleRedirectContextCancels(t *testing.T) {
	fired := make(chan RedirectTarget, 1)
	ctx, cancel := context.WithCancel(context.Background())

	ScheduleRedirect(ctx, 50*time.Millisecond, RedirectLogin, func(target RedirectTarget) {
		fired <- target
	})
	cancel()

	select {
	case <-fired:
		t.Fatal("redirect fired after context cancellation")
	case <-time.After(150 * time.Millisecond):
	}
}
