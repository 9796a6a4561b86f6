package api

import (
	"net/http"

	"github.com/TimurManjosov/goprofiles/internal/profile"
	"github.com/TimurManjosov/goprofiles/internal/snapshot"
)

type dataSourceRequest struct {
	RootContext *profile.Resolved[profile.RootContext] `json:"rootContext,omitempty"`
	DataSource  profile.DataSource                     `json:"dataSource"`
	Query       *profile.Query                         `json:"query,omitempty"`
	DataView    *profile.DataView                      `json:"dataView,omitempty"`
}

type documentRequest struct {
	RootContext       *profile.Resolved[profile.RootContext]       `json:"rootContext,omitempty"`
	DataSourceContext *profile.Resolved[profile.DataSourceContext] `json:"dataSourceContext,omitempty"`
	Record            profile.Record                               `json:"record"`
}

func (s *Server) handleResolveRoot(w http.ResponseWriter, r *http.Request) {
	var in profile.RootInput
	if !decodeBody(w, r, &in, "expected optional field 'solutionNavId'") {
		return
	}
	res, err := snapshot.Load().Services.Root.Resolve(r.Context(), in)
	if err != nil {
		s.logger.Error().Err(err).Msg("root resolution failed")
		InternalError(w, r, "Root resolution failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleResolveDataSource(w http.ResponseWriter, r *http.Request) {
	var req dataSourceRequest
	if !decodeBody(w, r, &req, "expected fields 'dataSource', optional 'rootContext', 'query', 'dataView'") {
		return
	}
	if fields := validateDataSource(req.DataSource, req.Query, req.DataView); len(fields) > 0 {
		ValidationError(w, r, "Invalid data source", fields)
		return
	}

	services := snapshot.Load().Services
	root := services.Root.Default()
	if req.RootContext != nil && req.RootContext.ProfileID != "" {
		root = *req.RootContext
	}
	res := services.DataSource.Resolve(profile.DataSourceInput{
		RootContext: root,
		DataSource:  req.DataSource,
		Query:       req.Query,
		DataView:    req.DataView,
	})
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleResolveDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !decodeBody(w, r, &req, "expected field 'record', optional 'rootContext', 'dataSourceContext'") {
		return
	}

	services := snapshot.Load().Services
	in := profile.DocumentInput{
		RootContext:       services.Root.Default(),
		DataSourceContext: services.DataSource.Default(),
		Record:            req.Record,
	}
	if req.RootContext != nil && req.RootContext.ProfileID != "" {
		in.RootContext = *req.RootContext
	}
	if req.DataSourceContext != nil && req.DataSourceContext.ProfileID != "" {
		in.DataSourceContext = *req.DataSourceContext
	}
	writeJSON(w, http.StatusOK, services.Document.Resolve(in))
}

// handleResolve runs the whole pipeline for a data source and a page of records.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req pipelineRequest
	if !decodeBody(w, r, &req, "expected fields 'dataSource' and 'records'") {
		return
	}
	if fields := validateDataSource(req.DataSource, req.Query, req.DataView); len(fields) > 0 {
		ValidationError(w, r, "Invalid data source", fields)
		return
	}

	resp, err := runPipeline(r.Context(), snapshot.Load().Services, req)
	if err != nil {
		s.logger.Error().Err(err).Msg("resolution failed")
		InternalError(w, r, "Resolution failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func validateDataSource(ds profile.DataSource, q *profile.Query, dv *profile.DataView) map[string]string {
	fields := make(map[string]string)
	switch ds.Type {
	case profile.DataSourceESQL:
		if q == nil || q.ESQL == "" {
			fields["query.esql"] = "Query is required for esql data sources"
		}
	case profile.DataSourceDataView:
		if ds.DataViewID == "" && dv == nil {
			fields["dataSource.dataViewId"] = "Data view ID or data view is required for dataView data sources"
		}
	case "":
		fields["dataSource.type"] = "Type is required"
	default:
		fields["dataSource.type"] = "Type must be dataView or esql"
	}
	return fields
}
