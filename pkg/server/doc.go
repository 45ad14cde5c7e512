// Package server exposes a router.Router over HTTP.
//
// The API reads and writes the current URL and state as JSON, saves and
// restores named snapshots through a store.Store, and streams every state
// change to websocket clients:
//
//	GET  /url                       {"url": "/users/42?flag"}
//	PUT  /url                       body {"url": ...}, returns the snapshot
//	GET  /state                     the state object
//	PUT  /state                     body state, returns the snapshot or 400
//	GET  /tree                      flattened route listing
//	GET  /snapshots                 saved snapshot names
//	POST /snapshots                 save the current state under a new name
//	PUT  /snapshots/{name}          save the current state under name
//	GET  /snapshots/{name}          fetch a saved state
//	DELETE /snapshots/{name}        remove a saved state
//	POST /snapshots/{name}/restore  apply a saved state
//	GET  /ws                        snapshot feed
//	GET  /healthz
//
// Errors are returned as JSON objects with a code, message and detail.
//
// Basic usage:
//
//	r, _ := router.New(root)
//	srv := server.New(r, server.DefaultConfig(),
//	    server.WithStore(store.NewMemoryStore()),
//	)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
