package health

import (
	"errors"
	"fmt"
)

var (
	// ErrAllGatewaysUnhealthy is returned by SelectGateway when no gateway is eligible.
	ErrAllGatewaysUnhealthy = errors.New("all gateways are unhealthy")

	// ErrInvalidConfig matches every ConfigurationError through errors.Is.
	ErrInvalidConfig = errors.New("invalid gateway configuration")
)

// ConfigurationError describes one reason a gateway configuration was rejected.
// Gateway is empty for problems that concern the whole set, such as the weight budget.
type ConfigurationError struct {
	Gateway string
	Field   string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Gateway == "" && e.Field == "":
		return fmt.Sprintf("invalid config: %s", e.Reason)
	case e.Gateway == "":
		return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
	default:
		return fmt.Sprintf("invalid config for %s: %s %s", e.Gateway, e.Field, e.Reason)
	}
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}
