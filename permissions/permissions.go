// Package permissions implements the hierarchical capability set of
// spec.md §3/§4.5 (Component J): a record of ten sub-capabilities, each a
// flat struct of booleans, merged field-wise by OR and computed once at
// access-token mint time from three user flags.
package permissions

// Regions holds region-editing capabilities.
type Regions struct {
	ModifyRegions bool
}

// Operators holds operator-editing capabilities.
type Operators struct {
	ModifyOperators bool
}

// Routes holds route/subroute/departure editing capabilities.
type Routes struct {
	ModifyRoutes bool
}

// Stops holds stop editing and contribution capabilities.
type Stops struct {
	ContribStops      bool
	ModifyAttrs       bool
	ModifyMapFeatures bool
	Delete            bool
}

// OsmStops holds OSM-stop-import-adjacent capabilities (the import itself
// is out of scope; this gates the internal side of accepting its output).
type OsmStops struct {
	ModifyOsmStops bool
}

// StopPics holds stop-picture contribution and moderation capabilities.
type StopPics struct {
	ContribStopPics bool
	ModifyOthers    bool
	Delete          bool
}

// News holds operator-news editing capabilities.
type News struct {
	ModifyNews bool
}

// ExternalNews holds externally-sourced-news editing capabilities.
type ExternalNews struct {
	ModifyExternalNews bool
}

// Admin holds administrative capabilities (user management, management
// tokens).
type Admin struct {
	ManageUsers          bool
	IssueManagementToken bool
}

// Misc holds capabilities that don't fit any other sub-capability.
type Misc struct {
	ViewStats bool
}

// Permissions is the full capability record (spec.md §3).
type Permissions struct {
	Regions      Regions
	Operators    Operators
	Routes       Routes
	Stops        Stops
	OsmStops     OsmStops
	StopPics     StopPics
	News         News
	ExternalNews ExternalNews
	Admin        Admin
	Misc         Misc
}

// Default is the permission set granted to a newly registered user: only
// the contribution flags under Stops and StopPics (spec.md §3).
func Default() Permissions {
	return Permissions{
		Stops:    Stops{ContribStops: true},
		StopPics: StopPics{ContribStopPics: true},
	}
}

func orBool(a, b bool) bool { return a || b }

// Merge combines two Permissions records field-wise by boolean OR
// (spec.md §4.5/§9).
func Merge(a, b Permissions) Permissions {
	return Permissions{
		Regions: Regions{
			ModifyRegions: orBool(a.Regions.ModifyRegions, b.Regions.ModifyRegions),
		},
		Operators: Operators{
			ModifyOperators: orBool(a.Operators.ModifyOperators, b.Operators.ModifyOperators),
		},
		Routes: Routes{
			ModifyRoutes: orBool(a.Routes.ModifyRoutes, b.Routes.ModifyRoutes),
		},
		Stops: Stops{
			ContribStops:      orBool(a.Stops.ContribStops, b.Stops.ContribStops),
			ModifyAttrs:       orBool(a.Stops.ModifyAttrs, b.Stops.ModifyAttrs),
			ModifyMapFeatures: orBool(a.Stops.ModifyMapFeatures, b.Stops.ModifyMapFeatures),
			Delete:            orBool(a.Stops.Delete, b.Stops.Delete),
		},
		OsmStops: OsmStops{
			ModifyOsmStops: orBool(a.OsmStops.ModifyOsmStops, b.OsmStops.ModifyOsmStops),
		},
		StopPics: StopPics{
			ContribStopPics: orBool(a.StopPics.ContribStopPics, b.StopPics.ContribStopPics),
			ModifyOthers:    orBool(a.StopPics.ModifyOthers, b.StopPics.ModifyOthers),
			Delete:          orBool(a.StopPics.Delete, b.StopPics.Delete),
		},
		News: News{
			ModifyNews: orBool(a.News.ModifyNews, b.News.ModifyNews),
		},
		ExternalNews: ExternalNews{
			ModifyExternalNews: orBool(a.ExternalNews.ModifyExternalNews, b.ExternalNews.ModifyExternalNews),
		},
		Admin: Admin{
			ManageUsers:          orBool(a.Admin.ManageUsers, b.Admin.ManageUsers),
			IssueManagementToken: orBool(a.Admin.IssueManagementToken, b.Admin.IssueManagementToken),
		},
		Misc: Misc{
			ViewStats: orBool(a.Misc.ViewStats, b.Misc.ViewStats),
		},
	}
}

// full grants every capability; used for the admin precedence tier.
func full() Permissions {
	return Permissions{
		Regions:      Regions{true},
		Operators:    Operators{true},
		Routes:       Routes{true},
		Stops:        Stops{true, true, true, true},
		OsmStops:     OsmStops{true},
		StopPics:     StopPics{true, true, true},
		News:         News{true},
		ExternalNews: ExternalNews{true},
		Admin:        Admin{true, true},
		Misc:         Misc{true},
	}
}

// trusted grants the elevated-but-non-admin tier: full stop/picture
// moderation plus map feature verification, but no account administration.
func trusted() Permissions {
	return Permissions{
		Stops: Stops{
			ContribStops:      true,
			ModifyAttrs:       true,
			ModifyMapFeatures: true,
			Delete:            true,
		},
		StopPics: StopPics{
			ContribStopPics: true,
			ModifyOthers:    true,
			Delete:          true,
		},
		OsmStops: OsmStops{ModifyOsmStops: true},
		News:     News{ModifyNews: true},
		Misc:     Misc{ViewStats: true},
	}
}

// forOperator grants the tier for a user who works for an operator: route
// and own-operator editing plus ordinary contribution rights.
func forOperator() Permissions {
	return Merge(Default(), Permissions{
		Routes:    Routes{ModifyRoutes: true},
		Operators: Operators{ModifyOperators: true},
		News:      News{ModifyNews: true},
	})
}

// ComputeForUser derives the fully-populated Permissions record for a user
// from the three precedence-ordered flags (spec.md §4.5): admin > trusted >
// operator > plain. This is the only place those flags should be read;
// every other capability check consults the resulting record.
func ComputeForUser(isAdmin, isTrusted bool, worksFor *int64) Permissions {
	switch {
	case isAdmin:
		return full()
	case isTrusted:
		return trusted()
	case worksFor != nil:
		return forOperator()
	default:
		return Default()
	}
}
