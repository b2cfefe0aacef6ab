package health

import (
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/config"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
)

// ValidateConfig checks a gateway set without installing it. The returned
// error combines every problem found; each one is a *ConfigurationError.
//
// A zero value counts as a missing field, so weights must be at least 1.
func ValidateConfig(configs []model.GatewayConfig) error {
	var errs error

	total := 0
	for _, c := range configs {
		// Out-of-range weights are reported per gateway and kept out of the sum.
		if c.Weight > 0 && c.Weight <= config.MaxTotalWeight {
			total += c.Weight
		}
	}
	if total > config.MaxTotalWeight {
		errs = multierr.Append(errs, &ConfigurationError{
			Field:  "weight",
			Reason: fmt.Sprintf("total %d exceeds %d", total, config.MaxTotalWeight),
		})
	}

	seen := make(map[string]bool, len(configs))
	for i, c := range configs {
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
			errs = multierr.Append(errs, &ConfigurationError{Gateway: name, Field: "name", Reason: "is required"})
		} else if seen[name] {
			errs = multierr.Append(errs, &ConfigurationError{Gateway: name, Field: "name", Reason: "is duplicated"})
		}
		seen[c.Name] = true

		if c.Weight == 0 {
			errs = multierr.Append(errs, &ConfigurationError{Gateway: name, Field: "weight", Reason: "is required"})
		} else if c.Weight < 0 {
			errs = multierr.Append(errs, &ConfigurationError{Gateway: name, Field: "weight", Reason: "must not be negative"})
		} else if c.Weight > config.MaxTotalWeight {
			errs = multierr.Append(errs, &ConfigurationError{Gateway: name, Field: "weight", Reason: fmt.Sprintf("must not exceed %d", config.MaxTotalWeight)})
		}

		if c.SuccessThreshold == 0 {
			errs = multierr.Append(errs, &ConfigurationError{Gateway: name, Field: "success_threshold", Reason: "is required"})
		} else if c.SuccessThreshold < 0 || c.SuccessThreshold > 1 {
			errs = multierr.Append(errs, &ConfigurationError{Gateway: name, Field: "success_threshold", Reason: "must be within (0,1]"})
		}

		if c.MinRequests == 0 {
			errs = multierr.Append(errs, &ConfigurationError{Gateway: name, Field: "min_requests", Reason: "is required"})
		} else if c.MinRequests < 0 {
			errs = multierr.Append(errs, &ConfigurationError{Gateway: name, Field: "min_requests", Reason: "must be positive"})
		}

		if c.DisableDurationMinutes == 0 {
			errs = multierr.Append(errs, &ConfigurationError{Gateway: name, Field: "disable_duration_minutes", Reason: "is required"})
		} else if c.DisableDurationMinutes < 0 {
			errs = multierr.Append(errs, &ConfigurationError{Gateway: name, Field: "disable_duration_minutes", Reason: "must be positive"})
		} else if c.DisableDurationMinutes > config.MaxDisableDurationMinutes {
			errs = multierr.Append(errs, &ConfigurationError{Gateway: name, Field: "disable_duration_minutes", Reason: fmt.Sprintf("must not exceed %d", config.MaxDisableDurationMinutes)})
		}
	}

	return errs
}

// ValidateAndSetConfig validates configs and, only if they are all valid,
// replaces the installed gateway set. Stats of gateways whose name survives
// are carried over; new gateways start zeroed; dropped gateways are discarded.
// Every installed gateway starts healthy.
func (r *Registry) ValidateAndSetConfig(configs []model.GatewayConfig) error {
	if err := ValidateConfig(configs); err != nil {
		slog.Warn("config_rejected", "error", err.Error())
		return err
	}

	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	gateways := make(map[string]*gatewayEntry, len(configs))
	order := make([]string, 0, len(configs))
	carried := 0
	for _, c := range configs {
		stats := Stats{LastUpdated: now}
		if old, ok := r.gateways[c.Name]; ok {
			old.mu.Lock()
			stats = old.stats
			stats.History = append([]Outcome(nil), old.stats.History...)
			old.mu.Unlock()
			carried++
		}
		gateways[c.Name] = newGatewayEntry(c, stats)
		order = append(order, c.Name)
	}

	r.gateways = gateways
	r.order = order

	slog.Info("config_updated",
		"gateways", order,
		"carried_stats", carried,
	)
	r.observer.ConfigInstalled(order)
	return nil
}
