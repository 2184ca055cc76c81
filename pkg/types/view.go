package types

// ViewKind is the top-level state of a search view.
type ViewKind string

const (
	ViewIdle    ViewKind = "idle"
	ViewLoading ViewKind = "loading"
	ViewLoaded  ViewKind = "loaded"
	ViewFailed  ViewKind = "failed"
)

// LoadingScope distinguishes what is being reloaded.
type LoadingScope string

const (
	// LoadingNewQuery reloads both result and resource tiles.
	LoadingNewQuery LoadingScope = "new_query"
	// LoadingNewPage reloads only result tiles; resources stay on screen.
	LoadingNewPage LoadingScope = "new_page"
)

// ViewState is the read-only projection a renderer draws from.
//
// Page is only set when Kind is ViewLoaded. Resources is set when Kind is
// ViewLoaded, and while ViewLoading with LoadingNewPage scope, where it holds
// the requested query's links. A ViewLoading state never carries content from
// a previous query. Error is only set when Kind is ViewFailed.
type ViewState struct {
	Kind             ViewKind          `json:"kind"`
	Search           *Search           `json:"search,omitempty"`
	LoadingScope     LoadingScope      `json:"loading_scope,omitempty"`
	ShowPlaceholders bool              `json:"show_placeholders,omitempty"`
	Page             *SearchResultPage `json:"page,omitempty"`
	Resources        *SearchResources  `json:"resources,omitempty"`
	Error            string            `json:"error,omitempty"`
}
