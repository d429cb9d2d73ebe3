// Package codes issues and verifies the one-time codes that authorise a signature.
//
// A code is six characters from A-Z0-9, delivered by email and valid for ten
// minutes. Only the most recently issued code for a (document, role) pair
// counts; older rows stay in the store but are never consulted.
//
// Issue delivers first and persists only after the mailer accepted the
// message, so a failed delivery leaves no row behind.
//
// Verify evaluates, in order:
//
//  1. no code for the pair           -> OutcomeNotFound
//  2. now after expires_at           -> OutcomeExpired (whatever the candidate)
//  3. attempts already at the cap    -> OutcomeExhausted, attempts unchanged
//  4. candidate equals the code      -> OutcomeSuccess
//  5. otherwise attempts+1 is stored -> OutcomeMismatch, or OutcomeExhausted
//     when that was the last attempt
//
// Comparison ignores case and surrounding whitespace and runs in constant time.
// Expiry is evaluated lazily against the injected clock; nothing sweeps old rows.
package codes
