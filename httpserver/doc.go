/*
Package httpserver exposes the lawyer and client bots over HTTP.

A chat frontend translates the events of its users into requests against
the bot endpoints and renders the returned replies (text, inline buttons
and optional file attachments). The server itself keeps no chat state;
sessions live in the bots.

# Bot Endpoints

  - POST /api/bots/{bot}/start - reset a chat and show the bot's greeting
  - POST /api/bots/{bot}/text - deliver a typed message
  - POST /api/bots/{bot}/callback - deliver a button press
  - POST /api/bots/{bot}/upload - deliver a file (multipart/form-data)

where {bot} is "lawyer" or "client".

# Back-office Endpoints

  - GET /api/clients/{client_id}/pending - documents awaiting the client's signature

# Health Endpoints

  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Gracefully mark server as not ready
  - GET /undrain - Mark server as ready
  - /debug/pprof/* when pprof is enabled

# Errors

Malformed requests are answered with 400, unknown bots and missing records
with 404, oversized uploads with 413 and storage outages with 503. Signing
failures are not HTTP errors: the bots answer them with explanatory replies.

# Example Usage

	handler := httpserver.NewHandler(lawyerBot, clientBot, signingService, 0, logger)
	server, err := httpserver.New(&api.HTTPServerConfig{
		ListenAddr:               ":8080",
		MetricsAddr:              ":8090",
		Log:                      logger,
		DrainDuration:            45 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
	}, handler)
	if err != nil {
		return err
	}
	server.RunInBackground()
	defer server.Shutdown()
*/
package httpserver
