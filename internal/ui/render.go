package ui

import (
	"fmt"
	"strings"

	"github.com/ilasdev/ilas/internal/models"
	"github.com/ilasdev/ilas/internal/session"
)

// RenderUser formats an identity block for human-readable CLI output.
func RenderUser(u *models.User) string {
	if u == nil {
		return styles.warn.Render("Not logged in") + "\n"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(u.Username) + "\n")
	if u.FirstName != "" {
		b.WriteString(fmt.Sprintf("Name:  %s\n", u.FirstName))
	}
	if u.Email != "" {
		b.WriteString(fmt.Sprintf("Email: %s\n", u.Email))
	}
	if u.Role != "" {
		b.WriteString(fmt.Sprintf("Role:  %s\n", u.Role))
	}
	if u.Department != "" {
		b.WriteString(fmt.Sprintf("Dept:  %s\n", u.Department))
	}
	return b.String()
}

// RenderSessionStatus formats the persisted session state without printing
// token material.
func RenderSessionStatus(s session.Session) string {
	if s.Empty() {
		return styles.warn.Render("✗ No active session") + "\n"
	}

	var b strings.Builder
	b.WriteString(styles.ok.Render("✓ Active session") + "\n")
	if s.User != nil {
		b.WriteString(fmt.Sprintf("User:    %s (%s)\n", s.User.Username, s.User.Role))
	}
	b.WriteString(fmt.Sprintf("Access:  %s\n", maskToken(s.AccessToken)))
	b.WriteString(fmt.Sprintf("Refresh: %s\n", maskToken(s.RefreshToken)))
	return b.String()
}

// maskToken keeps a short prefix for recognition and hides the rest.
func maskToken(token string) string {
	if token == "" {
		return "(none)"
	}
	if len(token) <= 8 {
		return "••••"
	}
	return token[:8] + "…"
}
