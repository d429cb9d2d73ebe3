/*
Package api defines the wire types of the lawsign HTTP transport.

The transport carries chat events to the lawyer and client bots and returns
their replies. A chat frontend (or lawsignctl) posts one request per event:

  - POST /api/bots/{bot}/start    - {"chat_id": 1}
  - POST /api/bots/{bot}/text     - {"chat_id": 1, "text": "AB12CD"}
  - POST /api/bots/{bot}/callback - {"chat_id": 1, "data": "sign_7"}
  - POST /api/bots/{bot}/upload   - multipart form with chat_id and file
  - GET  /api/clients/{client_id}/pending - documents awaiting the client

where {bot} is "lawyer" or "client". Every bot endpoint answers with a Reply.

The clients subpackage implements a Go client for these endpoints.
*/
package api
