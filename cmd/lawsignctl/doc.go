// Package main (cmd/lawsignctl) is a command-line driver for the lawsign bots.
//
// Every subcommand sends one event to the server as the configured chat and
// prints the bot's reply. Buttons are listed with their callback data so they
// can be pressed with the press subcommand, and attached documents are saved
// to --out-dir.
//
// Example lawyer session:
//
//	lawsignctl --bot=lawyer --chat-id=1001 start
//	lawsignctl --bot=lawyer --chat-id=1001 press add_client
//	lawsignctl --bot=lawyer --chat-id=1001 text client@example.com
//	lawsignctl --bot=lawyer --chat-id=1001 text "Ivan Petrov"
//	lawsignctl --bot=lawyer --chat-id=1001 upload ./contract.pdf
//	lawsignctl --bot=lawyer --chat-id=1001 press sign_1
//	lawsignctl --bot=lawyer --chat-id=1001 text AB12CD
package main
