package api

import (
	"context"
	"sort"

	"github.com/TimurManjosov/goprofiles/internal/profile"
)

type pipelineRequest struct {
	SolutionNavID *string            `json:"solutionNavId"`
	DataSource    profile.DataSource `json:"dataSource"`
	Query         *profile.Query     `json:"query,omitempty"`
	DataView      *profile.DataView  `json:"dataView,omitempty"`
	Records       []profile.Record   `json:"records"`
	Density       profile.Density    `json:"density,omitempty"`
	RowHeight     int                `json:"rowHeight,omitempty"`
}

type pipelineResponse struct {
	Root            profile.Resolved[profile.RootContext]       `json:"root"`
	DataSource      profile.Resolved[profile.DataSourceContext] `json:"dataSource"`
	CellRenderers   []string                                    `json:"cellRenderers"`
	LeadingControls []profile.RowControl                        `json:"leadingControls"`
	DefaultAppState *profile.DefaultAppState                    `json:"defaultAppState,omitempty"`
	Records         []recordResult                              `json:"records"`
}

type recordResult struct {
	ID              string                                    `json:"id"`
	Document        profile.Resolved[profile.DocumentContext] `json:"document"`
	RowIndicator    *profile.RowIndicator                     `json:"rowIndicator,omitempty"`
	LeadingControls []string                                  `json:"leadingControls,omitempty"`
	Cells           map[string]profile.Cell                   `json:"cells,omitempty"`
}

// runPipeline resolves all three tiers and evaluates the composed extension
// points. Grid-level points use the root and data-source profiles; per-record
// points additionally fold in the record's document profile.
func runPipeline(ctx context.Context, services *profile.Services, req pipelineRequest) (pipelineResponse, error) {
	root, err := services.Root.Resolve(ctx, profile.RootInput{SolutionNavID: req.SolutionNavID})
	if err != nil {
		return pipelineResponse{}, err
	}
	ds := services.DataSource.Resolve(profile.DataSourceInput{
		RootContext: root,
		DataSource:  req.DataSource,
		Query:       req.Query,
		DataView:    req.DataView,
	})

	layers := []profile.Composable{services.Root.GetProfile(root), services.DataSource.GetProfile(ds)}
	grid := composeLayers(layers, req)

	resp := pipelineResponse{
		Root:            root,
		DataSource:      ds,
		CellRenderers:   sortedKeys(grid.renderers),
		LeadingControls: grid.controls,
		DefaultAppState: grid.appState,
		Records:         make([]recordResult, 0, len(req.Records)),
	}
	if resp.LeadingControls == nil {
		resp.LeadingControls = []profile.RowControl{}
	}

	for _, rec := range req.Records {
		doc := services.Document.Resolve(profile.DocumentInput{
			RootContext:       root,
			DataSourceContext: ds,
			Record:            rec,
		})
		composed := composeLayers(append(layers[:len(layers):len(layers)], services.Document.GetProfile(doc)), req)
		resp.Records = append(resp.Records, composed.evaluate(rec, doc))
	}
	return resp, nil
}

// composition holds the accessors after folding a set of layers, already
// evaluated for the request's data view.
type composition struct {
	renderers map[string]profile.CellRenderer
	indicator profile.RowIndicatorFunc
	controls  []profile.RowControl
	appState  *profile.DefaultAppState
}

func composeLayers(layers []profile.Composable, req pipelineRequest) composition {
	var c composition
	if get := profile.MergeCellRenderers(nil, layers...); get != nil {
		c.renderers = get(profile.CellRenderersParams{DataView: req.DataView, Density: req.Density, RowHeight: req.RowHeight})
	}
	if provide := profile.MergeRowIndicatorProvider(nil, layers...); provide != nil {
		c.indicator = provide(profile.RowIndicatorParams{DataView: req.DataView})
	}
	if get := profile.MergeLeadingControls(nil, layers...); get != nil {
		c.controls = get(profile.LeadingControlsParams{DataView: req.DataView})
	}
	if get := profile.MergeDefaultAppState(nil, layers...); get != nil {
		c.appState = get(profile.DefaultAppStateParams{DataView: req.DataView})
	}
	return c
}

func (c composition) evaluate(rec profile.Record, doc profile.Resolved[profile.DocumentContext]) recordResult {
	out := recordResult{ID: rec.ID, Document: doc}
	if c.indicator != nil {
		out.RowIndicator = c.indicator(rec)
	}
	for _, ctl := range c.controls {
		if ctl.Active == nil || ctl.Active(rec) {
			out.LeadingControls = append(out.LeadingControls, ctl.ID)
		}
	}
	for field, render := range c.renderers {
		if _, ok := rec.Flattened[field]; !ok {
			continue
		}
		if out.Cells == nil {
			out.Cells = make(map[string]profile.Cell)
		}
		out.Cells[field] = render(rec, field)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
