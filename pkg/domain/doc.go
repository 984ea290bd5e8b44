/*
Package domain contains the core data model of the formwork field engine.

It defines the records the store keeps per field, the metadata captured at
registration time and the payloads exchanged with validators and observers.
This package is kept pure and free of I/O, following the same hexagonal layout
as the rest of the module.

# Key Entities

  - Field: the live record of a field (value, errors, touched/dirty/validating flags).
  - Patch: a partial Field update merged by the store.
  - Meta: registration metadata (rules, triggers, initial value, normalizer).
  - Result: the outcome of one validation pass, including stale (expired) fields.
*/
package domain
