/*
Package identity defines the domain model and storage contracts for a
document-backed identity store.

Users, roles, and per-provider authentication tokens are each persisted as
whole documents in their own collection. A user's claims, logins, and role
memberships are embedded collections owned by the user document; role
memberships embed whole Role documents rather than references.

Stores follow a uniform mutation pattern: field mutators and embedded-
collection operations change the in-memory object only, and a subsequent call
to Update is required for the change to survive. Token operations are the
exception; they persist immediately against the token collection, independent
of the owning user document.

Single-entity lookups report "not found" as a nil result, never as an error.
Every operation that accepts a context checks it once, up front, and fails
immediately if cancellation has already been signaled.

Implementations of the contracts in this package live in subpackages; see
identity/mongodb for the MongoDB-backed one.
*/
package identity
