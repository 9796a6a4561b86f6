package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/goprofiles/internal/cli"
	"github.com/TimurManjosov/goprofiles/internal/client"
	"github.com/TimurManjosov/goprofiles/internal/profile"
)

var (
	resolveSolution  string
	resolveQuery     string
	resolveDataView  string
	resolveFields    []string
	resolveTimeField string
	resolveRecords   string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve profiles for a data source and its records",
	Long: `Resolve the root, data-source and document profiles the service picks for
a query, and show the row indicator and leading controls of each record.

Records are read from a JSON file holding either one record or an array of
records, each with "id" and "flattened".

Examples:
  profilectl resolve --query "FROM logs-nginx.error-* | LIMIT 10"
  profilectl resolve --data-view logs-app-* --field log.level --record records.json
  profilectl resolve --solution oblt-nav --query "FROM traces-apm*"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat()
		if err != nil {
			return err
		}
		req, err := buildResolveRequest()
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		res, err := c.Resolve(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to resolve: %w", err)
		}
		if quiet {
			return nil
		}
		return cli.PrintResolution(os.Stdout, res, f)
	},
}

func buildResolveRequest() (client.ResolveRequest, error) {
	var req client.ResolveRequest
	switch {
	case resolveQuery != "" && resolveDataView != "":
		return req, fmt.Errorf("--query and --data-view are mutually exclusive")
	case resolveQuery != "":
		req.DataSource = profile.NewESQLDataSource()
		req.Query = &profile.Query{ESQL: resolveQuery}
	case resolveDataView != "":
		req.DataSource = profile.NewDataViewDataSource(resolveDataView)
		req.DataView = &profile.DataView{ID: resolveDataView, Title: resolveDataView, TimeFieldName: resolveTimeField}
	default:
		return req, fmt.Errorf("one of --query or --data-view is required")
	}

	if resolveSolution != "" {
		nav := resolveSolution
		req.SolutionNavID = &nav
	}

	if len(resolveFields) > 0 {
		dv := req.DataView
		if dv == nil {
			dv = &profile.DataView{Title: profile.DataSourceInput{DataSource: req.DataSource, Query: req.Query}.IndexPattern()}
			req.DataView = dv
		}
		for _, name := range resolveFields {
			if name = strings.TrimSpace(name); name != "" {
				dv.Fields = append(dv.Fields, profile.Field{Name: name})
			}
		}
	}

	if resolveRecords != "" {
		recs, err := readRecords(resolveRecords)
		if err != nil {
			return req, err
		}
		req.Records = recs
	}
	return req, nil
}

func readRecords(path string) ([]profile.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var recs []profile.Record
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, fmt.Errorf("failed to parse records: %w", err)
		}
		return recs, nil
	}
	var rec profile.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse record: %w", err)
	}
	return []profile.Record{rec}, nil
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&resolveSolution, "solution", "", "Solution navigation ID")
	resolveCmd.Flags().StringVar(&resolveQuery, "query", "", "ES|QL query")
	resolveCmd.Flags().StringVar(&resolveDataView, "data-view", "", "Data view title")
	resolveCmd.Flags().StringSliceVar(&resolveFields, "field", nil, "Field known to the data view (repeatable)")
	resolveCmd.Flags().StringVar(&resolveTimeField, "time-field", "@timestamp", "Time field of the data view")
	resolveCmd.Flags().StringVar(&resolveRecords, "record", "", "JSON file with one record or an array of records")
}
