package rem

import (
	"strings"

	"github.com/YuminosukeSato/remgo/pkg/errors"
)

// Mode selects how missing values are imputed.
type Mode int

const (
	// Reversible imputes with the paired linear maps: alpha for the response
	// on the regressors, betas for each regressor on the response.
	Reversible Mode = iota
	// Gaussian replaces a missing regressor with its multivariate-normal mean.
	Gaussian
)

func (m Mode) String() string {
	switch m {
	case Reversible:
		return "reversible"
	case Gaussian:
		return "normal"
	default:
		return "unknown"
	}
}

// ParseMode accepts "reversible", "normal" or "gaussian".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reversible", "":
		return Reversible, nil
	case "normal", "gaussian":
		return Gaussian, nil
	default:
		return Reversible, errors.NewValidationError("rem_estimate_mode", "unknown estimation mode", s)
	}
}
