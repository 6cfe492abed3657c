// Package util holds what the maxstore commands share: help text wrapping,
// flag sets, viper configuration (MAXSTORE_* environment variables, .env
// files and an optional --config file) and factories turning the flags into
// serializers, transports and mediums.
package util
