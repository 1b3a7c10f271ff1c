// Package config provides configuration loading, parsing, and validation for the gateway.
package config

import (
	"net"
	"strings"
)

// Valid routing modes.
var validRoutingModes = map[string]bool{
	"":            true, // empty defaults to smart
	"smart":       true,
	"fastest":     true,
	"round_robin": true,
	"round-robin": true,
}

// Valid logging levels.
var validLogLevels = map[string]bool{
	"":      true, // Empty defaults to info
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid logging formats.
var validLogFormats = map[string]bool{
	"":        true, // Empty: console on a terminal, json otherwise
	"json":    true,
	"console": true,
	"text":    true, // Alias for console
	"pretty":  true,
}

// Validate checks the configuration for errors.
// It validates all required fields, valid values, and cross-field constraints.
// Returns a ValidationError containing all errors found, or nil if valid.
func (c *Config) Validate() error {
	errs := &ValidationError{}

	validateServer(c, errs)
	validateUpstreams(c, errs)
	validateRouting(c, errs)
	validateLogging(c, errs)
	validateHealth(c, errs)

	return errs.ToError()
}

// validateServer validates the server configuration section.
func validateServer(c *Config, errs *ValidationError) {
	if c.Server.Listen == "" {
		errs.Add("server.listen is required")
	} else {
		validateListenAddress(c.Server.Listen, errs)
	}

	if c.Server.TimeoutMS < 0 {
		errs.Add("server.timeout_ms must be >= 0")
	}
	if c.Server.MaxConcurrent < 0 {
		errs.Add("server.max_concurrent must be >= 0")
	}
	if c.Server.FirstTokenTimeoutMS < 0 {
		errs.Add("server.first_token_timeout_ms must be >= 0")
	}
	if c.Server.ShutdownTimeoutMS < 0 {
		errs.Add("server.shutdown_timeout_ms must be >= 0")
	}
	if c.Server.Backoff.Multiplier < 0 {
		errs.Add("server.backoff.multiplier must be >= 0")
	}
}

// validateListenAddress validates a listen address in host:port format.
func validateListenAddress(addr string, errs *ValidationError) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		errs.Addf("server.listen must be in host:port format (got %q)", addr)
		return
	}

	if host != "" {
		if ip := net.ParseIP(host); ip == nil {
			if strings.ContainsAny(host, " \t\n") {
				errs.Add("server.listen host contains invalid characters")
			}
		}
	}
	if port == "" {
		errs.Add("server.listen port is required")
	}
}

// validateUpstreams validates the upstreams configuration section.
func validateUpstreams(c *Config, errs *ValidationError) {
	seenNames := make(map[string]bool)

	for i := range c.Upstreams {
		u := &c.Upstreams[i]
		if err := u.Validate(); err != nil {
			errs.Addf("upstreams[%d]: %s", i, err)
			continue
		}
		name := u.DisplayName()
		if seenNames[name] {
			errs.Addf("duplicate upstream: %s", name)
		}
		seenNames[name] = true
	}
}

// validateRouting validates the routing configuration section.
func validateRouting(c *Config, errs *ValidationError) {
	if !validRoutingModes[c.Routing.Mode] {
		errs.Addf("routing.mode is invalid (got %q, valid: smart, fastest, round_robin)", c.Routing.Mode)
	}
}

// validateHealth validates the health tuning configuration section.
func validateHealth(c *Config, errs *ValidationError) {
	h := &c.Health
	if h.FailureThresholdCount < 0 {
		errs.Add("health.failure_threshold must be >= 0")
	}
	if h.ResetTimeoutMS < 0 {
		errs.Add("health.reset_timeout_ms must be >= 0")
	}
	if h.HalfOpenMaxAttempts < 0 {
		errs.Add("health.half_open_max_attempts must be >= 0")
	}
	if h.MinRequestsForScoring < 0 {
		errs.Add("health.min_requests_for_scoring must be >= 0")
	}
	if h.ErrorPenaltyDurationMS < 0 {
		errs.Add("health.error_penalty_duration_ms must be >= 0")
	}
	if h.LatencyNormalizationMS < 0 {
		errs.Add("health.latency_normalization_ms must be >= 0")
	}
	for kind, bonus := range h.Priority {
		if bonus < 0 || bonus > 1 {
			errs.Addf("health.priority[%s] must be in [0,1] (got %v)", kind, bonus)
		}
	}
}

// validateLogging validates the logging configuration section.
func validateLogging(c *Config, errs *ValidationError) {
	if !validLogLevels[c.Logging.Level] {
		errs.Addf("logging.level is invalid (got %q, valid: debug, info, warn, error)",
			c.Logging.Level)
	}
	if !validLogFormats[c.Logging.Format] {
		errs.Addf("logging.format is invalid (got %q, valid: json, console, text, pretty)",
			c.Logging.Format)
	}
}
