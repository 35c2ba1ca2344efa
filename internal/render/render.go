// Package render draws asset and profile views in the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vadiminshakov/bazar/internal/domain"
	"github.com/vadiminshakov/bazar/internal/services/assetview"
	"github.com/vadiminshakov/bazar/internal/services/profileview"
	"github.com/vadiminshakov/bazar/internal/services/viewmodel"
)

var (
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	subtle    = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warning   = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF6B6B"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(0, 2).
			Bold(true)

	activeTabStyle   = lipgloss.NewStyle().Foreground(special).Bold(true).Underline(true)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(subtle)
	disabledTabStyle = lipgloss.NewStyle().Foreground(subtle).Strikethrough(true)
	mutedStyle       = lipgloss.NewStyle().Foreground(subtle)
	warningStyle     = lipgloss.NewStyle().Foreground(warning)
	sectionStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(highlight).Padding(0, 1)
)

// AssetView renders the active tab of an asset session.
func AssetView(snap assetview.Snapshot) string {
	if snap.Loading {
		return mutedStyle.Render("Loading asset " + snap.AssetID + "...")
	}

	v := snap.View
	var b strings.Builder

	title := v.Title
	if v.Ticker != "" {
		title += " (" + v.Ticker + ")"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Total balance: %s", v.TotalBalance)))
	if v.Stamps != nil {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  Stamps: %d (%d vouched)", v.Stamps.Total, v.Stamps.Vouched)))
	}
	b.WriteString("\n\n")

	b.WriteString(tabBar(snap.Tab))
	b.WriteString("\n")

	switch snap.Tab {
	case assetview.TabMarket:
		b.WriteString(sectionStyle.Render(listingsTable(v)))
	case assetview.TabOwners:
		b.WriteString(sectionStyle.Render(ownersTable(v)))
	default:
		b.WriteString(mutedStyle.Render("Nothing to show here yet."))
	}

	for _, w := range v.Warnings {
		b.WriteString("\n")
		b.WriteString(warningStyle.Render("! " + w))
	}

	return b.String()
}

func tabBar(active assetview.Tab) string {
	parts := make([]string, 0, len(assetview.Tabs))
	for _, t := range assetview.Tabs {
		label := strings.ToUpper(string(t))
		if t == active {
			parts = append(parts, activeTabStyle.Render(label))
			continue
		}
		parts = append(parts, inactiveTabStyle.Render(label))
	}
	return strings.Join(parts, "  ")
}

func listingsTable(v viewmodel.AssetView) string {
	if len(v.Listings) == 0 {
		return mutedStyle.Render("No listings")
	}

	rows := []string{mutedStyle.Render(v.ListingsSummary)}
	for _, l := range v.Listings {
		row := fmt.Sprintf("%-16s %12s %8s  @ %s %s", l.Seller, l.QuantityFmt, l.PercentFmt, l.PriceFmt, l.CurrencyName)
		if l.Cancellable {
			row += "  " + activeTabStyle.Render("[cancel "+l.ID+"]")
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

func ownersTable(v viewmodel.AssetView) string {
	if len(v.Owners) == 0 {
		return mutedStyle.Render("No owners")
	}

	rows := []string{mutedStyle.Render(v.OwnersSummary)}
	for _, o := range v.Owners {
		rows = append(rows, fmt.Sprintf("%-16s %12s %8s", o.Name, o.QuantityFmt, o.PercentFmt))
	}
	return strings.Join(rows, "\n")
}

// Profile renders a profile page header and its tabs.
func Profile(page profileview.Page) string {
	h := page.Header
	var b strings.Builder

	b.WriteString(titleStyle.Render(h.Name))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(h.Handle))
	if h.StreakDays > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("  %d day streak", h.StreakDays)))
	}
	b.WriteString("\n\n")

	switch {
	case h.Bio == "":
		b.WriteString(mutedStyle.Render("No bio"))
	case h.BioTruncated:
		b.WriteString(h.Bio + " " + mutedStyle.Render("(view full bio)"))
	default:
		b.WriteString(h.Bio)
	}
	b.WriteString("\n")

	if h.CreateProfilePrompt {
		b.WriteString(warningStyle.Render("Create a profile to get started!"))
		b.WriteString("\n")
	} else if h.CanEdit {
		b.WriteString(activeTabStyle.Render("[edit profile]"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	parts := make([]string, 0, len(page.Tabs))
	for _, t := range page.Tabs {
		label := strings.ToUpper(string(t.Tab))
		switch {
		case t.Disabled:
			parts = append(parts, disabledTabStyle.Render(label))
		case t.Tab == page.Route.Tab:
			parts = append(parts, activeTabStyle.Render(label))
		default:
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	b.WriteString(strings.Join(parts, "  "))
	b.WriteString("\n")

	items := page.Profile.Assets
	if page.Route.Tab == profileview.TabCollections {
		items = page.Profile.Collections
	}
	if len(items) == 0 {
		b.WriteString(mutedStyle.Render("Nothing here yet"))
	} else {
		b.WriteString(sectionStyle.Render(strings.Join(items, "\n")))
	}

	return b.String()
}

// Status renders one line per store domain.
func Status(status domain.AppStatus) string {
	records := map[domain.StoreDomain]domain.DomainStatus{
		domain.DomainMarket:     status.Market,
		domain.DomainStreaks:    status.Streaks,
		domain.DomainStamps:     status.Stamps,
		domain.DomainCurrencies: status.Currencies,
	}

	rows := make([]string, 0, len(domain.Domains))
	for _, d := range domain.Domains {
		s := records[d]
		state := "pending"
		switch {
		case s.Updating:
			state = "updating"
		case s.Completed && s.LastUpdate != nil:
			state = "updated " + s.LastUpdate.Format("15:04:05")
		}
		rows = append(rows, fmt.Sprintf("%-10s %s", d, state))
	}
	return strings.Join(rows, "\n")
}
