package profile

// Profile IDs of the fallback resolutions.
const (
	DefaultRootProfileID       = "default-root-profile"
	DefaultDataSourceProfileID = "default-data-source-profile"
	DefaultDocumentProfileID   = "default-document-profile"
)

// Services bundles one service per tier.
type Services struct {
	Root       *RootService
	DataSource *DataSourceService
	Document   *DocumentService
}

// NewServices returns empty services for all three tiers with their default
// fallbacks.
func NewServices(opts ...Option) *Services {
	return &Services{
		Root: NewAsyncService[RootInput, RootContext](
			TierRoot, DefaultRootProfileID, RootContext{SolutionType: SolutionDefault}, opts...),
		DataSource: NewService[DataSourceInput, DataSourceContext](
			TierDataSource, DefaultDataSourceProfileID, DataSourceContext{Category: CategoryDefault}, opts...),
		Document: NewService[DocumentInput, DocumentContext](
			TierDocument, DefaultDocumentProfileID, DocumentContext{Type: DocumentDefault}, opts...),
	}
}

// Providers lists the providers of every tier in resolution order.
func (s *Services) Providers() []Info {
	out := s.Root.Providers()
	out = append(out, s.DataSource.Providers()...)
	return append(out, s.Document.Providers()...)
}
