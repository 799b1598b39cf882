/*
Package authsdk provides a client SDK for the session authentication service,
along with the wire types and errors the server itself writes.

# SDKClient vs Session

  - SDKClient: unauthenticated operations (register, login, revoke, health)
  - Session: one bearer token plus the calls that need it (me, logout)

	client := authsdk.NewSDKClient("https://auth.example.com")

	user, err := client.Register(ctx, "alice", "s3cret")

	session, err := client.AuthenticateWithPassword(ctx, "alice", "s3cret")
	id, err := session.Me(ctx)
	err = session.Logout(ctx)

Tokens are opaque. Their expiry slides forward on every authenticated
request, so there is nothing to refresh client side.

# Error Handling

Failed requests return *APIError. The predefined values can be matched with
errors.Is:

	_, err := client.Register(ctx, "alice", "s3cret")
	if errors.Is(err, authsdk.ErrDuplicateUser) {
		// username taken
	}

Login failures always return ErrInvalidCredentials regardless of whether
the username exists.

# Thread Safety

SDKClient and Session are safe for concurrent use.
*/
package authsdk
