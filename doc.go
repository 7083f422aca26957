// Package restconv is a convention-driven HTTP API dispatcher.
//
// Services declare their methods and parameters as descriptors; the
// engine compiles them into a route table (deriving verbs and URL
// patterns from method names and parameter lists, unless a method
// declares manual routes), negotiates request and response data formats,
// binds URL, query, and body parameters to positional arguments, and
// resolves per-method access levels against pluggable authenticators.
//
//	users := restconv.NewService("Users").WithPrefix("users/")
//	users.Method("getIndex", listUsers)
//	users.Method("getItem", getUser).
//		Param(restconv.Param{Name: "id", Validate: "min=1"})
//
//	app := restconv.NewApp(restconv.DefaultConfig()).AddService(users)
//	http.ListenAndServe(":8080", app.Handler())
//
// getIndex auto-routes to GET /users and getItem to GET /users/item/{id}.
// The compiled table is read-only after Compile and safe to share across
// concurrent requests; with Config.CacheRoutes and a BlobStore it is
// persisted and reloaded to skip recompilation.
package restconv
