package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Context-level fields, propagated through the call chain.
const (
	// FieldRequestID is the inbound HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldVendorID is the vendor whose keywords are being generated
	FieldVendorID = "vendor_id"

	// FieldCity is the city being enriched
	FieldCity = "city"

	// FieldModel is the AI model used for an attempt
	FieldModel = "model"

	// FieldTier is the competitor discovery tier that produced a result
	FieldTier = "tier"
)

// Entry-level metric fields, used for aggregation and alerting.
const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldStatus     = "status"
	FieldUpstream   = "upstream"
	FieldSize       = "size"
)
