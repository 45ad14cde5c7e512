// Package config loads routestate configuration files.
//
// The configuration is stored in routestate.json or routestate.toml. It
// describes the route tree, the HTTP API and the snapshot store. This
// package handles loading, saving, validating and building the tree.
//
// # Configuration File Structure
//
//	{
//	  "tree": {
//	    "children": [
//	      {"name": "home"},
//	      {
//	        "name": "users",
//	        "capturePath": true,
//	        "params": [{"kind": "boolean", "variable": "flag"}]
//	      },
//	      {
//	        "name": "search",
//	        "params": [{"kind": "string", "variable": "query", "query": "q"}]
//	      }
//	    ]
//	  },
//	  "server": {"host": "0.0.0.0", "port": 8080},
//	  "store": {"kind": "file", "dir": "snapshots"},
//	  "initialURL": "/home"
//	}
//
// The same structure in TOML uses [[tree.children]] tables.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	root, err := cfg.BuildTree()
package config
