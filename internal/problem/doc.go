// Package problem classifies failed backend calls into a closed set of
// problem kinds and defines the Result envelope every API operation returns.
//
// Kinds
//
//   - timeout, cannot-connect, unknown   transport failures, temporary
//   - server                             any 5xx
//   - unauthorized, forbidden            401 / 403, the session should be invalidated
//   - not-found, rejected                404 / other 4xx
//   - bad-data                           the response did not match the expected schema
//   - cancelled                          the caller went away, no result at all
//
// Classify is the only place where transport tags and HTTP statuses are
// turned into kinds; callers of the API client never see either.
package problem
