// Package toolkit wires the configured subsystems together.
//
// A Toolkit is built once at process start from a config.Config and
// passed explicitly to whatever needs rate limiting, caching, or
// recovery. There are no package-level singletons; every dependency is
// a field on the Toolkit.
//
//	cfg, err := config.Load("config.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	kit, err := toolkit.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer kit.Close(ctx)
//
//	if kit.Limits.Check("api_calls", "tools", ratelimit.CheckOptions{}) {
//	    result, err := kit.Recovery.Execute(ctx, "fetch", fetchOp)
//	    ...
//	}
//
// Close flushes write-behind cache work, shuts the observer down, and
// closes the Redis connection when one was opened.
package toolkit
