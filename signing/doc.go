// Package signing implements the document signature state machine.
//
// A document moves Created -> LawyerSigned -> FullySigned. The lawyer signs
// first; the client may only request a code once the lawyer's signature is
// committed. Each transition is one atomic unit held under a per-document
// lock:
//
//  1. re-read the document and re-check eligibility
//  2. verify the candidate code
//  3. stamp a new revision from the accumulated signer facts
//  4. commit flags, signer facts and the new file path in one guarded
//     store transaction
//
// Code issuance and email delivery run outside the lock. A failed stamp or
// commit never advances the state, and the previously committed revision
// stays current.
package signing
