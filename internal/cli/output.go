package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/goprofiles/internal/client"
	"github.com/TimurManjosov/goprofiles/internal/profile"
	"github.com/TimurManjosov/goprofiles/internal/store"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// ParseFormat returns the OutputFormat named by s.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use table, json or yaml)", s)
	}
}

// PrintDefinitions outputs definitions in the specified format.
func PrintDefinitions(w io.Writer, defs []store.Definition, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, map[string][]store.Definition{"definitions": defs})
	case FormatYAML:
		return printYAML(w, defs)
	case FormatTable:
		return definitionTable(w, defs)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintDefinition outputs a single definition in the specified format.
func PrintDefinition(w io.Writer, def *store.Definition, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, def)
	case FormatYAML:
		return printYAML(w, def)
	case FormatTable:
		return definitionTable(w, []store.Definition{*def})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintProfiles outputs the registered providers of every tier.
func PrintProfiles(w io.Writer, p *client.Profiles, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, p)
	case FormatYAML:
		return printYAML(w, p)
	case FormatTable:
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Tier", "#", "Profile", "Priority", "Experimental", "Default")
	for _, tier := range profile.Tiers {
		for i, info := range p.Tiers[tier] {
			table.Append(
				string(tier),
				strconv.Itoa(i+1),
				info.ProfileID,
				strconv.Itoa(info.Priority),
				strconv.FormatBool(info.Experimental),
				strconv.FormatBool(info.Default),
			)
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "etag: %s\n", p.ETag)
	for _, id := range sortedKeys(p.Skipped) {
		fmt.Fprintf(w, "skipped %s: %s\n", id, p.Skipped[id])
	}
	return nil
}

// PrintResolution outputs the outcome of a full resolution. The table format
// shows one row per tier followed by one row per record.
func PrintResolution(w io.Writer, res *client.ResolveResponse, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, res)
	case FormatYAML:
		return printYAML(w, res)
	case FormatTable:
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	tiers := tablewriter.NewWriter(w)
	tiers.Header("Tier", "Profile", "Context")
	tiers.Append(string(profile.TierRoot), res.Root.ProfileID, "solution="+string(res.Root.Context.SolutionType))
	tiers.Append(string(profile.TierDataSource), res.DataSource.ProfileID, "category="+string(res.DataSource.Context.Category))
	if err := tiers.Render(); err != nil {
		return err
	}

	if len(res.CellRenderers) > 0 {
		fmt.Fprintf(w, "cell renderers: %s\n", strings.Join(res.CellRenderers, ", "))
	}
	if res.DefaultAppState != nil && len(res.DefaultAppState.Columns) > 0 {
		cols := make([]string, 0, len(res.DefaultAppState.Columns))
		for _, c := range res.DefaultAppState.Columns {
			cols = append(cols, c.Name)
		}
		fmt.Fprintf(w, "default columns: %s\n", strings.Join(cols, ", "))
	}
	if len(res.Records) == 0 {
		return nil
	}

	records := tablewriter.NewWriter(w)
	records.Header("Record", "Profile", "Type", "Indicator", "Controls")
	for _, rec := range res.Records {
		indicator := "-"
		if rec.RowIndicator != nil {
			indicator = fmt.Sprintf("%s (%s)", rec.RowIndicator.Label, rec.RowIndicator.Color)
		}
		controls := "-"
		if len(rec.LeadingControls) > 0 {
			controls = strings.Join(rec.LeadingControls, ",")
		}
		records.Append(
			rec.ID,
			rec.Document.ProfileID,
			string(rec.Document.Context.Type),
			indicator,
			controls,
		)
	}
	return records.Render()
}

func printJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func definitionTable(w io.Writer, defs []store.Definition) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Tier", "Matches", "Priority", "Experimental", "Updated At")

	for _, def := range defs {
		updated := "-"
		if !def.UpdatedAt.IsZero() {
			updated = def.UpdatedAt.Format("2006-01-02 15:04")
		}
		table.Append(
			def.ID,
			string(def.Tier),
			truncate(matchSummary(def), 40),
			strconv.Itoa(def.Priority),
			strconv.FormatBool(def.Experimental),
			updated,
		)
	}

	return table.Render()
}

func matchSummary(def store.Definition) string {
	switch def.Tier {
	case profile.TierDataSource:
		return fmt.Sprintf("%s -> %s", strings.Join(def.IndexPatterns, ","), def.Category)
	case profile.TierDocument:
		parts := make([]string, 0, len(def.Conditions)+1)
		for _, c := range def.Conditions {
			parts = append(parts, fmt.Sprintf("%s %s", c.Field, c.Operator))
		}
		if def.Expression != nil {
			parts = append(parts, *def.Expression)
		}
		return strings.Join(parts, " && ")
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
