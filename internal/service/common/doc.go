// Package common holds helpers shared by several services.
//
// It provides utilities to detect the current system actor
// (hostname/username) for update notifications.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
