package profile

// Density is the row density of a result grid.
type Density string

const (
	DensityCompact  Density = "compact"
	DensityNormal   Density = "normal"
	DensityExpanded Density = "expanded"
)

// Cell is the rendered form of one field of one record.
type Cell struct {
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
	Badge bool   `json:"badge,omitempty"`
}

// CellRenderer renders a field of a record.
type CellRenderer func(rec Record, field string) Cell

// CellRenderersParams are handed to a CellRenderersGetter.
type CellRenderersParams struct {
	DataView  *DataView
	Density   Density
	RowHeight int
}

// CellRenderersGetter returns renderers keyed by field name.
type CellRenderersGetter func(CellRenderersParams) map[string]CellRenderer

// RowIndicator is the colour bar shown at the start of a row.
type RowIndicator struct {
	Color string `json:"color"`
	Label string `json:"label"`
}

// RowIndicatorFunc computes the indicator of one record; nil means no indicator.
type RowIndicatorFunc func(Record) *RowIndicator

// RowIndicatorParams are handed to a RowIndicatorProvider.
type RowIndicatorParams struct {
	DataView *DataView
}

// RowIndicatorProvider returns the indicator function for a data view, or nil when
// the data view does not support row indicators.
type RowIndicatorProvider func(RowIndicatorParams) RowIndicatorFunc

// RowControl is an extra control shown before each row.
type RowControl struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	IconType string `json:"iconType,omitempty"`
	// Active reports whether the control has something to show for a record.
	Active func(Record) bool `json:"-"`
}

// LeadingControlsParams are handed to a LeadingControlsGetter.
type LeadingControlsParams struct {
	DataView *DataView
}

// LeadingControlsGetter returns the additional leading controls of a row.
type LeadingControlsGetter func(LeadingControlsParams) []RowControl

// Column is a default grid column.
type Column struct {
	Name  string `json:"name"`
	Width int    `json:"width,omitempty"`
}

// DefaultAppState is the initial grid state suggested by a profile.
type DefaultAppState struct {
	Columns   []Column `json:"columns,omitempty"`
	RowHeight int      `json:"rowHeight,omitempty"`
}

// DefaultAppStateParams are handed to a DefaultAppStateGetter.
type DefaultAppStateParams struct {
	DataView *DataView
}

// DefaultAppStateGetter returns the suggested initial state, or nil for none.
type DefaultAppStateGetter func(DefaultAppStateParams) *DefaultAppState

// ExtensionParams carry the resolved context into an extension point.
type ExtensionParams[C any] struct {
	Context C
}

// Profile is the set of extension points a provider contributes. Every field is
// optional; a nil field means the provider does not touch that extension point.
// Each extension receives the accessor built by the layers before it and returns the
// accessor to use from then on: it may wrap it, replace it or return it unchanged.
type Profile[C any] struct {
	GetCellRenderers                func(prev CellRenderersGetter, p ExtensionParams[C]) CellRenderersGetter
	GetRowIndicatorProvider         func(prev RowIndicatorProvider, p ExtensionParams[C]) RowIndicatorProvider
	GetRowAdditionalLeadingControls func(prev LeadingControlsGetter, p ExtensionParams[C]) LeadingControlsGetter
	GetDefaultAppState              func(prev DefaultAppStateGetter, p ExtensionParams[C]) DefaultAppStateGetter
}

// Composable is a Profile with its context already applied, so profiles of different
// tiers can be folded together.
type Composable struct {
	ProfileID                       string
	GetCellRenderers                func(prev CellRenderersGetter) CellRenderersGetter
	GetRowIndicatorProvider         func(prev RowIndicatorProvider) RowIndicatorProvider
	GetRowAdditionalLeadingControls func(prev LeadingControlsGetter) LeadingControlsGetter
	GetDefaultAppState              func(prev DefaultAppStateGetter) DefaultAppStateGetter
}

// Bind applies ctx to every extension point of p. Absent points stay nil.
func (p Profile[C]) Bind(profileID string, ctx C) Composable {
	params := ExtensionParams[C]{Context: ctx}
	c := Composable{ProfileID: profileID}

	if f := p.GetCellRenderers; f != nil {
		c.GetCellRenderers = func(prev CellRenderersGetter) CellRenderersGetter { return f(prev, params) }
	}
	if f := p.GetRowIndicatorProvider; f != nil {
		c.GetRowIndicatorProvider = func(prev RowIndicatorProvider) RowIndicatorProvider { return f(prev, params) }
	}
	if f := p.GetRowAdditionalLeadingControls; f != nil {
		c.GetRowAdditionalLeadingControls = func(prev LeadingControlsGetter) LeadingControlsGetter { return f(prev, params) }
	}
	if f := p.GetDefaultAppState; f != nil {
		c.GetDefaultAppState = func(prev DefaultAppStateGetter) DefaultAppStateGetter { return f(prev, params) }
	}
	return c
}

// merge folds the profiles over base in order. Profiles without the extension point
// pass the accumulated accessor through untouched.
func merge[A any](base A, profiles []Composable, pick func(Composable) func(A) A) A {
	acc := base
	for _, p := range profiles {
		if ext := pick(p); ext != nil {
			acc = ext(acc)
		}
	}
	return acc
}

// MergeCellRenderers folds the cell renderer extensions of profiles over base.
func MergeCellRenderers(base CellRenderersGetter, profiles ...Composable) CellRenderersGetter {
	return merge(base, profiles, func(c Composable) func(CellRenderersGetter) CellRenderersGetter {
		return c.GetCellRenderers
	})
}

// MergeRowIndicatorProvider folds the row indicator extensions of profiles over base.
// The result is nil when no layer provides an indicator.
func MergeRowIndicatorProvider(base RowIndicatorProvider, profiles ...Composable) RowIndicatorProvider {
	return merge(base, profiles, func(c Composable) func(RowIndicatorProvider) RowIndicatorProvider {
		return c.GetRowIndicatorProvider
	})
}

// MergeLeadingControls folds the leading control extensions of profiles over base.
func MergeLeadingControls(base LeadingControlsGetter, profiles ...Composable) LeadingControlsGetter {
	return merge(base, profiles, func(c Composable) func(LeadingControlsGetter) LeadingControlsGetter {
		return c.GetRowAdditionalLeadingControls
	})
}

// MergeDefaultAppState folds the default app state extensions of profiles over base.
func MergeDefaultAppState(base DefaultAppStateGetter, profiles ...Composable) DefaultAppStateGetter {
	return merge(base, profiles, func(c Composable) func(DefaultAppStateGetter) DefaultAppStateGetter {
		return c.GetDefaultAppState
	})
}

// Extend returns p with every extension point that ext sets replaced by ext's.
func (p Profile[C]) Extend(ext Profile[C]) Profile[C] {
	out := p
	if ext.GetCellRenderers != nil {
		out.GetCellRenderers = ext.GetCellRenderers
	}
	if ext.GetRowIndicatorProvider != nil {
		out.GetRowIndicatorProvider = ext.GetRowIndicatorProvider
	}
	if ext.GetRowAdditionalLeadingControls != nil {
		out.GetRowAdditionalLeadingControls = ext.GetRowAdditionalLeadingControls
	}
	if ext.GetDefaultAppState != nil {
		out.GetDefaultAppState = ext.GetDefaultAppState
	}
	return out
}
