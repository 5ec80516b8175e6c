package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/subvault-dev/subvault-cli/internal/application"
	"github.com/subvault-dev/subvault-cli/internal/domain"
)

type RenderOptions struct {
	Now time.Time
}

func renderView(status application.Status, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("SubVault Account"),
	}

	if !status.SignedIn {
		lines = append(lines,
			s.empty.Render("Not signed in."),
			s.header.Render("Run 'sv purchase' to subscribe or 'sv recover' to restore a store purchase."),
		)
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	lines = append(lines, s.account.Render(accountTitle(status.Account)))
	lines = append(lines, s.section.Render(renderSubscription(status.Subscription, opts, s)))

	if len(status.Entitlements) > 0 {
		lines = append(lines, s.section.Render(renderEntitlements(status.Entitlements, s)))
	}

	encryption := "unsupported"
	if status.CanSupportEncryption {
		encryption = "supported"
	}
	lines = append(lines, s.section.Render(keyValueLine(s, "encryption:", s.detail.Render(encryption))))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSubscription(sub domain.Subscription, opts RenderOptions, s styles) string {
	if sub.IsZero() {
		return s.empty.Render("No subscription on record.")
	}

	parts := []string{
		keyValueLine(s, "plan:", s.detail.Render(sub.ProductID)),
		keyValueLine(s, "status:", statusStyle(sub.Status, s).Render(statusLabel(sub.Status))),
	}

	if !sub.ExpiresOrRenewsAt.IsZero() {
		verb := "expires"
		if sub.Status == domain.SubscriptionAutoRenewable {
			verb = "renews"
		}
		parts = append(parts, keyValueLine(s, verb+":", s.detail.Render(formatWhen(sub.ExpiresOrRenewsAt, opts.Now))))
	}
	if sub.Platform != "" {
		parts = append(parts, keyValueLine(s, "platform:", s.detail.Render(sub.Platform)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderEntitlements(entitlements domain.Entitlements, s styles) string {
	parts := []string{s.key.Render("entitlements:")}
	for _, product := range entitlements {
		parts = append(parts, s.detail.Render("  - "+string(product)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func keyValueLine(s styles, key, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.key.Render(key), " ", value)
}

func accountTitle(account domain.Account) string {
	email := strings.TrimSpace(account.Email)
	if email == "" {
		return fmt.Sprintf("Account: %s", account.ExternalID)
	}
	return fmt.Sprintf("Account: %s (%s)", email, account.ExternalID)
}

func statusLabel(status domain.SubscriptionStatus) string {
	switch status {
	case domain.SubscriptionAutoRenewable:
		return "active (auto-renewing)"
	case domain.SubscriptionNotAutoRenewable:
		return "active (not renewing)"
	case domain.SubscriptionGracePeriod:
		return "active (grace period)"
	case domain.SubscriptionWaiting:
		return "waiting for confirmation"
	case domain.SubscriptionExpired:
		return "expired"
	case domain.SubscriptionInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

func statusStyle(status domain.SubscriptionStatus, s styles) lipgloss.Style {
	switch {
	case status.Active():
		return s.active
	case status == domain.SubscriptionWaiting:
		return s.warning
	default:
		return s.inactive
	}
}

func formatWhen(at, now time.Time) string {
	if at.IsZero() {
		return "unknown"
	}
	if now.IsZero() {
		return at.Format("15:04 on 02 Jan 2006")
	}
	if at.Before(now) {
		return fmt.Sprintf("%s (past due)", at.Format("02 Jan 2006"))
	}

	remaining := at.Sub(now)
	if remaining < 24*time.Hour {
		hours := int(math.Ceil(remaining.Hours()))
		if hours < 1 {
			hours = 1
		}
		suffix := "hours"
		if hours == 1 {
			suffix = "hour"
		}
		return fmt.Sprintf("in %d %s (%s)", hours, suffix, at.Format("15:04"))
	}

	days := int(math.Ceil(remaining.Hours() / 24))
	suffix := "days"
	if days == 1 {
		suffix = "day"
	}
	return fmt.Sprintf("in %d %s (%s)", days, suffix, at.Format("02 Jan 2006"))
}
