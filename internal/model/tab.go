package model

// TabIcon identifies which icon a tab renders with. The set is closed;
// unknown values fall back to IconHome at render time.
type TabIcon string

const (
	IconHome      TabIcon = "home"
	IconTicket    TabIcon = "ticket"
	IconAsset     TabIcon = "asset"
	IconAccessory TabIcon = "accessory"
	IconInventory TabIcon = "inventory"
	IconReport    TabIcon = "report"
	IconDev       TabIcon = "dev"
	IconCustomer  TabIcon = "customer"
	IconAdmin     TabIcon = "admin"
	IconSettings  TabIcon = "settings"
)

// HomeTabID is the fixed identifier of the home tab. The home tab always
// exists, is always first in the tab list, and is never closable.
const HomeTabID = "home"

// Tab represents one open logical view, analogous to a browser tab.
type Tab struct {
	// ID is an opaque identifier, stable for the lifetime of the tab.
	ID string `json:"id"`

	// Title is the display string. It may be renamed after creation,
	// e.g. once remote data for the view has loaded.
	Title string `json:"title"`

	// URL is the logical location the tab represents and doubles as the
	// dedup key: at most one tab exists per distinct URL.
	URL string `json:"url"`

	// Icon selects the tab's icon tag.
	Icon TabIcon `json:"icon"`

	// Closable is false only for the home tab.
	Closable bool `json:"closable"`
}

// HomeTab returns the canonical home tab.
func HomeTab() Tab {
	return Tab{
		ID:       HomeTabID,
		Title:    "Home",
		URL:      "/",
		Icon:     IconHome,
		Closable: false,
	}
}

// TabSession is the persisted form of the tab manager's state.
type TabSession struct {
	Tabs        []Tab  `json:"tabs"`
	ActiveTabID string `json:"activeTabId"`
}
