// Package config handles loading and validating Stencil configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (JWT secret, Redis password) should be set via
//     environment variables, never committed to the config file
//   - The config file should have restricted permissions (0600)
//
// Configuration is loaded once at startup and passed to component
// constructors as explicit structs; there is no global settings object.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.App.Name)
package config
