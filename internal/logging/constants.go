package logging

// Standardized field names for structured logging, shared by the extraction
// components so log output can be filtered per stage.
const (
	FieldFile       = "file_path"
	FieldOperation  = "operation"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldReason     = "reason"
	FieldCount      = "count"
	FieldDuration   = "duration_ms"
	FieldInputFile  = "input_file"
	FieldOutputFile = "output_file"

	FieldMerchant   = "merchant"
	FieldCategory   = "category"
	FieldTemplate   = "template"
	FieldPattern    = "pattern"
	FieldMethod     = "method"
	FieldState      = "state"
	FieldSource     = "source"
	FieldDocument   = "document"
	FieldUserID     = "user_id"
	FieldKind       = "kind"
	FieldDistance   = "distance"
	FieldLine       = "line"
	FieldAmount     = "amount"
	FieldCorrection = "correction_id"
)
