// Package universe holds the read-only entity registry (companies, assets,
// watchlists) and the deterministic resolver that binds free-text company
// or operator mentions to a stable company identity. Loading the registry
// from YAML/file I/O is an external driver's job, not this package's —
// callers construct a Universe value however they like and pass it in.
package universe

// Company is one entry in the entity registry.
type Company struct {
	CompanyID string   `yaml:"company_id" json:"company_id"`
	Name      string   `yaml:"name" json:"name"`
	Aliases   []string `yaml:"aliases" json:"aliases,omitempty"`
	Tickers   []string `yaml:"tickers" json:"tickers,omitempty"`
}

// Asset is an entry in the registry's asset list. Its shape is intentionally
// open — callers treat assets as opaque records keyed by AssetID.
type Asset struct {
	AssetID string         `yaml:"asset_id" json:"asset_id"`
	Extra   map[string]any `yaml:",inline" json:"-"`
}

// Watchlist is a named grouping of company or asset identifiers.
type Watchlist struct {
	Name      string   `yaml:"name" json:"name"`
	Companies []string `yaml:"companies" json:"companies,omitempty"`
	Assets    []string `yaml:"assets" json:"assets,omitempty"`
}

// Universe is the immutable, already-loaded entity registry.
type Universe struct {
	Version    int
	Assets     []Asset
	Companies  []Company
	Watchlists []Watchlist
}

// Watchlist returns the named watchlist, defaulting to "default".
func (u Universe) Watchlist(name string) (Watchlist, bool) {
	if name == "" {
		name = "default"
	}
	for _, w := range u.Watchlists {
		if w.Name == name {
			return w, true
		}
	}
	return Watchlist{}, false
}

// CompanyByID looks up a company by its stable identifier.
func (u Universe) CompanyByID(companyID string) (Company, bool) {
	for _, c := range u.Companies {
		if c.CompanyID == companyID {
			return c, true
		}
	}
	return Company{}, false
}
