package assetview

import (
	"strings"

	"github.com/pkg/errors"
)

// Tab is the active section of the asset detail view.
type Tab string

const (
	TabMarket   Tab = "market"
	TabActivity Tab = "activity"
	TabOwners   Tab = "owners"
	TabComments Tab = "comments"
)

// Tabs lists the selectable tabs in display order.
var Tabs = []Tab{TabMarket, TabActivity, TabOwners, TabComments}

// ErrUnknownTab is returned for a tab name outside Tabs.
var ErrUnknownTab = errors.New("unknown tab")

// ParseTab resolves a tab name case-insensitively.
func ParseTab(name string) (Tab, error) {
	t := Tab(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Tabs {
		if t == known {
			return t, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownTab, "%q", name)
}
