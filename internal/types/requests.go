package types

// FootprintRawRequest is the unvalidated footprint query, a flat mapping
// from query-parameter name to string or string-slice value. Handlers fill
// it verbatim from the URL query; all validation is performed by the
// footprint service, never locally.
type FootprintRawRequest struct {
	StartDate      string
	EndDate        string
	IgnoreCache    string
	GroupBy        string
	Limit          string
	Skip           string
	CloudProviders []string
	Accounts       []string
	Services       []string
	Regions        []string
	Tags           map[string]string
}

// RecommendationsRawRequest is the unvalidated recommendations query.
type RecommendationsRawRequest struct {
	AWSRecommendationTarget string
}
