// Package cmd implements the maxstore command line interface.
//
//   - serve: serve mediums over RPC (see maxstore serve --help)
//   - kv: read and write a namespaced store on a local or remote medium
//   - version: print the version
//
// Every flag can also be set as environment variable MAXSTORE_<FLAG> (dashes
// become underscores), in a .env or .env.local file or in the file passed
// with --config.
package cmd
