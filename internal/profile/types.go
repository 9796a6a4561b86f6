// Package profile resolves an incoming situation to exactly one profile per tier.
//
// Resolution runs in three tiers. The root tier classifies the solution the user is in,
// the data-source tier classifies what is being queried, and the document tier
// classifies a single record. Each child tier receives the resolved parent context by
// value and can read it but not change it.
package profile

import (
	"github.com/TimurManjosov/goprofiles/internal/esql"
)

// Tier identifies one level of the resolution hierarchy.
type Tier string

const (
	TierRoot       Tier = "root"
	TierDataSource Tier = "data_source"
	TierDocument   Tier = "document"
)

// Tiers lists the tiers in resolution order.
var Tiers = []Tier{TierRoot, TierDataSource, TierDocument}

// SolutionType is the product area a root context belongs to.
type SolutionType string

const (
	SolutionDefault       SolutionType = "default"
	SolutionObservability SolutionType = "oblt"
	SolutionSecurity      SolutionType = "security"
	SolutionSearch        SolutionType = "search"
)

// RootInput is the input of root-tier resolution. A nil SolutionNavID means the
// caller is outside of any solution navigation.
type RootInput struct {
	SolutionNavID *string `json:"solutionNavId"`
}

// RootContext is the context derived by a root profile.
type RootContext struct {
	SolutionType SolutionType `json:"solutionType"`
}

// DataSourceType tells how a data source is backed.
type DataSourceType string

const (
	DataSourceDataView DataSourceType = "dataView"
	DataSourceESQL     DataSourceType = "esql"
)

// DataSource describes what the user is querying.
type DataSource struct {
	Type       DataSourceType `json:"type"`
	DataViewID string         `json:"dataViewId,omitempty"`
}

// NewDataViewDataSource returns a data source backed by the given data view.
func NewDataViewDataSource(dataViewID string) DataSource {
	return DataSource{Type: DataSourceDataView, DataViewID: dataViewID}
}

// NewESQLDataSource returns a query-backed data source.
func NewESQLDataSource() DataSource {
	return DataSource{Type: DataSourceESQL}
}

// Field is a field of a data view.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// DataView is a named index pattern with its known fields.
type DataView struct {
	ID            string  `json:"id,omitempty"`
	Title         string  `json:"title"`
	TimeFieldName string  `json:"timeFieldName,omitempty"`
	Fields        []Field `json:"fields,omitempty"`
}

// HasField reports whether the data view knows a field with the given name.
func (d *DataView) HasField(name string) bool {
	if d == nil {
		return false
	}
	for _, f := range d.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// IndexPattern returns the index pattern the data view targets.
func (d *DataView) IndexPattern() string {
	if d == nil {
		return ""
	}
	return d.Title
}

// Query is the text of a query-backed data source.
type Query struct {
	ESQL string `json:"esql"`
}

// DataSourceCategory is the broad kind of data a data source holds.
type DataSourceCategory string

const (
	CategoryLogs    DataSourceCategory = "logs"
	CategoryMetrics DataSourceCategory = "metrics"
	CategoryTraces  DataSourceCategory = "traces"
	CategoryDefault DataSourceCategory = "default"
)

// DataSourceContext is the context derived by a data-source profile.
type DataSourceContext struct {
	Category DataSourceCategory `json:"category"`
}

// DataSourceInput is the input of data-source resolution. Query is set for
// query-backed sources and DataView for data-view sources.
type DataSourceInput struct {
	RootContext Resolved[RootContext] `json:"rootContext"`
	DataSource  DataSource            `json:"dataSource"`
	Query       *Query                `json:"query,omitempty"`
	DataView    *DataView             `json:"dataView,omitempty"`
}

// IndexPattern returns the index pattern the input targets: the sources of the ES|QL
// query for query-backed sources, the data view title otherwise.
func (in DataSourceInput) IndexPattern() string {
	switch in.DataSource.Type {
	case DataSourceESQL:
		if in.Query == nil {
			return ""
		}
		return esql.IndexPattern(in.Query.ESQL)
	case DataSourceDataView:
		if in.DataView != nil {
			return in.DataView.IndexPattern()
		}
		return in.DataSource.DataViewID
	default:
		return ""
	}
}

// Record is a single document of a result set.
type Record struct {
	ID        string         `json:"id"`
	Flattened map[string]any `json:"flattened"`
	Raw       map[string]any `json:"raw,omitempty"`
}

// FieldValue returns the value of a flattened field. Multi-valued fields yield their
// first element.
func (r Record) FieldValue(name string) (any, bool) {
	v, ok := r.Flattened[name]
	if !ok || v == nil {
		return nil, false
	}
	switch vals := v.(type) {
	case []any:
		if len(vals) == 0 {
			return nil, false
		}
		return vals[0], vals[0] != nil
	case []string:
		if len(vals) == 0 {
			return nil, false
		}
		return vals[0], true
	}
	return v, true
}

// StringValue returns a flattened field as a string when it holds one.
func (r Record) StringValue(name string) (string, bool) {
	v, ok := r.FieldValue(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// DocumentType is the kind of a single record.
type DocumentType string

const (
	DocumentLog     DocumentType = "log"
	DocumentTrace   DocumentType = "trace"
	DocumentDefault DocumentType = "default"
)

// DocumentContext is the context derived by a document profile.
type DocumentContext struct {
	Type DocumentType `json:"type"`
}

// DocumentInput is the input of document resolution.
type DocumentInput struct {
	RootContext       Resolved[RootContext]       `json:"rootContext"`
	DataSourceContext Resolved[DataSourceContext] `json:"dataSourceContext"`
	Record            Record                      `json:"record"`
}
