package profileview

import (
	"net/url"
	"strings"

	"github.com/vadiminshakov/bazar/pkg/format"
)

// NotFoundPath is where invalid profile navigation ends up.
const NotFoundPath = "/not-found"

// Tab is a section of the profile page.
type Tab string

const (
	TabAssets      Tab = "assets"
	TabCollections Tab = "collections"
	TabListings    Tab = "listings"
	TabActivity    Tab = "activity"
)

// TabLink describes one profile tab.
type TabLink struct {
	Tab      Tab    `json:"tab"`
	URL      string `json:"url"`
	Disabled bool   `json:"disabled"`
}

// Tabs returns the profile tabs for the address. Listings and activity are not served yet.
func Tabs(address string) []TabLink {
	return []TabLink{
		{Tab: TabAssets, URL: ProfilePath(address, TabAssets)},
		{Tab: TabCollections, URL: ProfilePath(address, TabCollections)},
		{Tab: TabListings, URL: ProfilePath(address, TabListings), Disabled: true},
		{Tab: TabActivity, URL: ProfilePath(address, TabActivity), Disabled: true},
	}
}

// ProfilePath builds the canonical URL of a profile tab.
func ProfilePath(address string, tab Tab) string {
	return "/profile/" + url.PathEscape(address) + "/" + string(tab)
}

// Route is the outcome of resolving profile navigation.
// Redirect is set when the caller should navigate elsewhere instead of rendering.
type Route struct {
	Address  string `json:"address,omitempty"`
	Tab      Tab    `json:"tab,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// ResolveRoute validates the address and tab taken from the URL.
func ResolveRoute(address, tab string) Route {
	address = strings.TrimSpace(address)
	if address == "" || !format.ValidAddress(address) {
		return Route{Redirect: NotFoundPath}
	}

	tab = strings.ToLower(strings.TrimSpace(tab))
	if tab == "" {
		return Route{Address: address, Redirect: ProfilePath(address, TabAssets)}
	}

	for _, t := range Tabs(address) {
		if string(t.Tab) == tab && !t.Disabled {
			return Route{Address: address, Tab: t.Tab}
		}
	}
	return Route{Address: address, Tab: TabAssets}
}
