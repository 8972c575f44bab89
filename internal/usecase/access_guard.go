package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"shoplink/internal/domain/entity"
)

// RedirectDelay is how long the denial overlay stays up before the
// redirect fires.
const RedirectDelay = 3 * time.Second

type RedirectTarget string

const (
	RedirectNone      RedirectTarget = ""
	RedirectLogin     RedirectTarget = "login"
	RedirectHome      RedirectTarget = "home"
	RedirectDashboard RedirectTarget = "dashboard"
)

// GuardInput is a page's access policy: roles the viewer must hold (any
// of) and roles that are locked out. Either set may be empty.
type GuardInput struct {
	RequiredRoles []entity.Role
	ExcludedRoles []entity.Role
}

type GuardDecision struct {
	HasAccess bool
	Message   string
	Redirect  RedirectTarget
}

// EvaluateAccess computes the access decision for a viewer session.
//
// Unauthenticated viewers get in only when no role is required. Logged-in
// viewers need membership in the required set (vacuously true when empty)
// and non-membership in the excluded set (likewise). Missing a required
// role redirects home, hitting an exclusion redirects to the viewer's
// dashboard, and unauthenticated denials redirect to login.
func EvaluateAccess(in GuardInput, sess entity.Session) GuardDecision {
	if !sess.LoggedIn {
		if len(in.RequiredRoles) == 0 {
			return GuardDecision{HasAccess: true}
		}
		return GuardDecision{
			Message:  "Please log in to continue. This page requires " + joinRoles(in.RequiredRoles),
			Redirect: RedirectLogin,
		}
	}

	if !sess.HasAnyRole(in.RequiredRoles) {
		return GuardDecision{
			Message:  "This page is only available to " + joinRoles(in.RequiredRoles),
			Redirect: RedirectHome,
		}
	}

	for _, role := range in.ExcludedRoles {
		if sess.HasRole(role) {
			return GuardDecision{
				Message:  fmt.Sprintf("This page is not available to %s accounts", role),
				Redirect: RedirectDashboard,
			}
		}
	}

	return GuardDecision{HasAccess: true}
}

func joinRoles(roles []entity.Role) string {
	labels := make([]string, len(roles))
	for i, role := range roles {
		labels[i] = string(role)
	}
	return strings.Join(labels, " or ")
}

// ScheduleRedirect fires navigate(target) after the delay unless the
// context is cancelled or the returned stop function runs first. The
// timer is scoped to the evaluation that scheduled it: any re-evaluation
// must stop the old timer, so a login completing in time cancels the
// pending redirect.
func ScheduleRedirect(ctx context.Context, delay time.Duration, target RedirectTarget, navigate func(RedirectTarget)) (stop func()) {
	timer := time.NewTimer(delay)
	stopped := make(chan struct{})
	var once sync.Once
	stop = func() {
		once.Do(func() { close(stopped) })
	}

	go func() {
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-stopped:
		case <-timer.C:
			navigate(target)
		}
	}()

	return stop
}
