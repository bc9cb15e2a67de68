// Package kinds registers all anagraphic kind definitions with the core registry.
// Import this package to ensure all kinds are registered.
package kinds

// Each kind file uses init() to register its kinds.
