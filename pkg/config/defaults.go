package config

/**
 * Parameters
 */

// kernel family used when a spec names none
var DefaultCovType = "Gaussian"

// keep the inverse covariance on fitted models unless told otherwise
var DefaultReturnKi = true

// separators of the inline matrix notation "x11,x12;x21,x22"
const (
	RowSeparator    = ";"
	ColumnSeparator = ","
)

// extensions read as JSON rather than YAML
var JSONExtensions = []string{".json"}
