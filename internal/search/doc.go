// Package search implements the incremental search-as-you-type controller.
//
// A [Session] turns raw keystrokes into debounced, cancellable provider queries and publishes
// [Snapshot] values to subscribers. Each issued request carries a sequence number; a response is
// applied only when its sequence is the newest issued and the request was not cancelled, so a slow
// response for an older query can never overwrite a newer result.
//
// Session state moves through [Idle], [Debouncing], [Loading], [Resolved] and [Errored]:
//
//	Idle --input--> Debouncing --timer, len >= min--> Loading --ok--> Resolved
//	                    |                                 |--fail--> Errored
//	                    +--timer, len < min--> Idle       +--input--> Debouncing (request cancelled)
//
// [Session.Reset] returns any state to Idle. [Session.Dispose] ends the session; it is idempotent.
//
// All mutations are serialised by one mutex. Timer and network callbacks run on their own
// goroutines and take the lock before touching session fields. Cancellation is best effort;
// the sequence check is what guarantees ordering.
//
// The result policy ([Policy]) fixes the minimum query length (2 runes), the debounce delay (350ms),
// drops results without a title or poster, sorts by popularity descending and keeps 20 entries.
package search
