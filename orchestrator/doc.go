// Package orchestrator sequences the signing core against the two human
// actors: the lawyer, who registers clients, uploads documents and signs
// first, and the client, who finds pending documents and countersigns.
//
// Each bot is a chat-shaped state machine driven by four kinds of events
// (start, text, button callback, file upload) and answers with a Reply.
// Per-user scratch state lives in an explicit Session owned by the bot's
// SessionStore; it is cleared on start, on completion and on terminal
// errors. Core errors and verification outcomes are translated to user
// facing text here and nowhere else.
//
// Callback data follows fixed patterns:
//
//	add_client              lawyer: begin client intake
//	sign_<documentID>       lawyer: request a signature code
//	view_doc_<clientID>     client: open the newest pending document
//	client_sign_<docID>     client: request a signature code
package orchestrator
