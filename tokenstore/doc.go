// Package tokenstore holds session credentials for the API client.
//
// Three backends implement Store: Memory for a single process, Redis
// (go-redis) for credentials shared between processes, and Bolt (bbolt)
// for a session that survives restarts. New picks one from Config.
//
//	store, err := tokenstore.New(cfg.TokenStore, log)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//	httpclient.InstallSessionInterceptors(client.Registry(), httpclient.SessionConfig{
//		Tokens: store,
//	})
package tokenstore
