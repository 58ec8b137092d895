// Package session owns the authenticated identity of the running client.
//
// The Store hydrates tokens from secure storage at startup, performs login,
// refresh and logout, and exposes narrow setters for the fields collaborators
// learn later (account number, token id, balance). Every flow persists first
// and then applies its change to memory in a single locked step, so readers
// never observe a token that is set but not yet stored.
//
// Responses that arrive after the session moved on (a logout or a newer
// login) are dropped: callers capture a Generation when they read the token
// and hand it back when applying the result.
package session
