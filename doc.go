// Package main provides the entry point of panelkit, a server-rendered admin panel.
// It serves local accounts with optional two-factor authentication, profile and avatar
// self-service, notifications and an admin area for users, activity and application
// settings. Settings are persisted with gorm, cached in memory or valkey and resolved
// against the process environment into a runtime snapshot that drives feature toggles.
package main
