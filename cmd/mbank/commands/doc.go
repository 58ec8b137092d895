// Package commands defines the mbank CLI and wires dependencies for subcommands.
//
// Commands
//
//   - login <phone>            Check the number, then log in with a password
//   - logout                   Forget the session and its stored tokens
//   - status                   Show who is logged in
//   - account                  Fetch the account and remember its details
//   - balance                  Show the last confirmed balance
//   - transactions             List the transaction history
//   - transfer <phone> <amt>   Send money to another customer
//   - reload <amt>             Top up a prepaid number from the account
//
// # Implementation
//
// The root command loads configuration, opens secure storage with the
// passphrase and hydrates the session before any subcommand runs, so handlers
// always see the persisted login state. The wire is closed after the command
// returns, which wipes in-memory secrets.
//
// An unauthorized result is retried once after exchanging the refresh token.
// If that fails too, or the bank answers forbidden, the session is logged out
// and the user is asked to log in again.
package commands
