// Package rest provides typed generic helpers over the core client.
//
// It inherits the core pipeline unchanged (hooks, error normalization,
// cookies, tracing) and adds JSON decoding into caller types:
//
//	client, _ := rest.New(restclient.Config{BaseURL: "https://api.example.com"})
//
//	user, err := rest.Get[User](ctx, client, "/users/123")
//	created, err := rest.Post[User](ctx, client, "/users", restclient.JSON(newUser))
//
// Error checking works exactly as with the core client:
//
//	if restclient.IsServerError(err) { ... }
package rest
