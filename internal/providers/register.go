// Package providers holds the built-in profile providers and compiles
// declarative definitions into providers.
package providers

import (
	"errors"
	"fmt"

	"github.com/TimurManjosov/goprofiles/internal/profile"
	"github.com/TimurManjosov/goprofiles/internal/store"
)

// Options configure RegisterAll.
type Options struct {
	// EnabledExperimentalIDs allowlists experimental providers, built-in or
	// declared, by profile ID.
	EnabledExperimentalIDs []string
	// ExtraLogsFamilies are accepted as log sources next to the default families.
	ExtraLogsFamilies []string
	// Definitions are compiled and registered alongside the built-in providers.
	Definitions []store.Definition
}

// RegisterAll registers the built-in providers and the definitions with s, in
// resolution order:
//
//	root:        example, security, observability, search
//	data source: example, logs sub-profiles, definitions, generic logs
//	document:    example, definitions, log document
//
// Definitions that fail to compile are skipped; their errors are joined into the
// returned error after everything else has been registered.
func RegisterAll(s *profile.Services, opts Options) error {
	regOpts := profile.RegisterOptions{EnabledExperimentalIDs: opts.EnabledExperimentalIDs}
	logs := NewLogsContext(opts.ExtraLogsFamilies...)

	dataSourceDefs, documentDefs, defErrs := compileDefinitions(opts.Definitions)

	if err := profile.RegisterEnabled[profile.RootProvider](s.Root, rootProviders(), regOpts); err != nil {
		return fmt.Errorf("register root providers: %w", err)
	}

	dataSources := append([]profile.DataSourceProvider{exampleDataSourceProvider()}, logsDataSourceProviders(logs, dataSourceDefs)...)
	if err := profile.RegisterEnabled[profile.DataSourceProvider](s.DataSource, dataSources, regOpts); err != nil {
		return fmt.Errorf("register data source providers: %w", err)
	}

	documents := append([]profile.DocumentProvider{exampleDocumentProvider()}, documentDefs...)
	documents = append(documents, logDocumentProvider(logs))
	if err := profile.RegisterEnabled[profile.DocumentProvider](s.Document, documents, regOpts); err != nil {
		return fmt.Errorf("register document providers: %w", err)
	}

	return errors.Join(defErrs...)
}

func compileDefinitions(defs []store.Definition) ([]profile.DataSourceProvider, []profile.DocumentProvider, []error) {
	var (
		dataSources []profile.DataSourceProvider
		documents   []profile.DocumentProvider
		errs        []error
	)
	for _, def := range defs {
		switch def.Tier {
		case profile.TierDataSource:
			p, err := DataSourceFromDefinition(def)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			dataSources = append(dataSources, p)
		case profile.TierDocument:
			p, err := DocumentFromDefinition(def)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			documents = append(documents, p)
		default:
			errs = append(errs, fmt.Errorf("definition %s: unsupported tier %q", def.ID, def.Tier))
		}
	}
	return dataSources, documents, errs
}

// BuiltinIDs lists the profile IDs of all built-in providers, experimental ones
// included, plus the default fallbacks.
func BuiltinIDs() []string {
	ids := []string{profile.DefaultRootProfileID, profile.DefaultDataSourceProfileID, profile.DefaultDocumentProfileID}
	for _, p := range rootProviders() {
		ids = append(ids, p.ProfileID)
	}
	ids = append(ids, ExampleDataSourceProfileID)
	for _, p := range logsDataSourceProviders(NewLogsContext(), nil) {
		ids = append(ids, p.ProfileID)
	}
	return append(ids, ExampleDocumentProfileID, LogDocumentProfileID)
}
