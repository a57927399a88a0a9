// Package config defines the settings used by the pos-updater binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Every field has a built-in default matching the original deployment, so the
// binaries run without any configuration file present. The destination path
// default incorporates the invoking user's home directory at run time.
package config
