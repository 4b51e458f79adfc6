package types

// Telemetry metric names for CloudWatch.
// All components MUST use these constants.
const (
	// Metric Names
	MetricAPILatency         = "APILatency"
	MetricAPIRequestCount    = "APIRequestCount"
	MetricExternalAPIFailure = "ExternalAPIFailure"
	MetricWebhookRejected    = "WebhookRejected"

	// Dimension Keys
	DimEndpoint  = "Endpoint"
	DimMethod    = "Method"
	DimStatus    = "Status"
	DimProvider  = "Provider"
	DimOperation = "Operation"

	// Metric Namespace default; overridable via METRIC_NAMESPACE.
	MetricNamespace = "Storefront"
)
