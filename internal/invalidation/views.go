package invalidation

import (
	"sort"
	"strings"
)

// Scope tells the renderer how much to recompute for a path.
type Scope string

const (
	ScopePage   Scope = "page"   // only the path itself
	ScopeLayout Scope = "layout" // the path and everything rendered under its layout
)

// View is a cached render identified by a path template. ":id" is filled from the target.
type View struct {
	Path  string
	Scope Scope
}

var (
	ViewSite            = View{Path: "/", Scope: ScopeLayout}
	ViewCatalog         = View{Path: "/products", Scope: ScopePage}
	ViewProductDetail   = View{Path: "/products/:id", Scope: ScopePage}
	ViewWishlist        = View{Path: "/wishlist", Scope: ScopePage}
	ViewAccountWishlist = View{Path: "/account/wishlist", Scope: ScopePage}
	ViewModerationQueue = View{Path: "/admin/reviews", Scope: ScopePage}
	ViewSettingsAdmin   = View{Path: "/admin/settings", Scope: ScopePage}
	ViewProductsAdmin   = View{Path: "/admin/products", Scope: ScopePage}
)

// Entity is a kind of data whose change makes some views stale.
type Entity string

const (
	EntityWishlist       Entity = "wishlist"
	EntityReviewQueue    Entity = "review_queue"
	EntityProductReviews Entity = "product_reviews"
	EntityCatalog        Entity = "catalog"
	EntitySettings       Entity = "settings"
	EntityProduct        Entity = "product"
)

// Dependencies is the single source of truth for which views render which data.
// Adding a view means adding it here, not at every call site.
var Dependencies = map[Entity][]View{
	EntityWishlist:       {ViewWishlist, ViewAccountWishlist},
	EntityReviewQueue:    {ViewModerationQueue},
	EntityProductReviews: {ViewProductDetail},
	EntityCatalog:        {ViewCatalog},
	EntitySettings:       {ViewSettingsAdmin, ViewSite},
	EntityProduct:        {ViewProductDetail, ViewCatalog, ViewProductsAdmin},
}

// Target names a changed entity, with the id used by parameterized views.
type Target struct {
	Entity Entity
	ID     string
}

func Wishlist() Target { return Target{Entity: EntityWishlist} }
func ReviewQueue() Target { return Target{Entity: EntityReviewQueue} }
func Catalog() Target { return Target{Entity: EntityCatalog} }
func Settings() Target { return Target{Entity: EntitySettings} }
func ProductReviews(id string) Target { return Target{Entity: EntityProductReviews, ID: id} }
func Product(id string) Target { return Target{Entity: EntityProduct, ID: id} }

// Event is one stale marker handed to the sinks.
type Event struct {
	Path  string `json:"path"`
	Scope Scope  `json:"scope"`
}

// Resolve expands targets into deduplicated events, sorted by path.
// Parameterized views whose target has no id are skipped.
func Resolve(deps map[Entity][]View, targets ...Target) []Event {
	seen := make(map[string]Event)
	for _, target := range targets {
		for _, view := range deps[target.Entity] {
			path := view.Path
			if strings.Contains(path, ":id") {
				if target.ID == "" {
					continue
				}
				path = strings.ReplaceAll(path, ":id", target.ID)
			}
			// layout scope wins when the same path is reached twice
			if prev, ok := seen[path]; ok && prev.Scope == ScopeLayout {
				continue
			}
			seen[path] = Event{Path: path, Scope: view.Scope}
		}
	}

	events := make([]Event, 0, len(seen))
	for _, event := range seen {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	return events
}
