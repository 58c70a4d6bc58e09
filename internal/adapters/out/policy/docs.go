// Package policy implements services.CapabilityResolver from a YAML role map.
package policy
