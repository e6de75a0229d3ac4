// Package config loads runtime configuration for the FieldOps CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address of the backend HTTP endpoint
//	-d string   path to the local SQLite database
//	-i int      online status check interval (seconds)
//	-s int      scheduled sync interval (seconds)
//	-r int      retries before an item is dead-lettered (0 = forever)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "http://127.0.0.1:8080",
//	  "database_path": "fieldops.db",
//	  "photo_dir": "photos",
//	  "online_check_interval": "3s",
//	  "sync_interval": "1m",
//	  "max_retries": 5,
//	  "priorities": {"report": 4, "photo": 3, "location": 2, "timerecord": 1}
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
