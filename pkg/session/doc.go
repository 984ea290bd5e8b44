/*
Package session keeps the forms of concurrent clients apart.

A Manager maps session IDs to the formwork.Form built for them by a Factory
and serializes compound operations per session, so that a read followed by a
write on one form is never interleaved with another request on it. Locks are
reference counted and released as soon as no caller holds them.
*/
package session
