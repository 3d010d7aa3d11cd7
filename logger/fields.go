package logger

// Standard field names for consistent structured logging across apiroll.
// Use these constants instead of raw strings to keep logs queryable.
const (
	// Analysis context
	FieldPackage = "package"
	FieldFile    = "file"
	FieldName    = "name"

	// Artifacts
	FieldTier = "tier"
	FieldOut  = "out"

	// Surface counts
	FieldSymbols      = "symbols"
	FieldDeclarations = "declarations"
	FieldExports      = "exports"
	FieldImports      = "imports"

	// Errors
	FieldError = "error"
)
