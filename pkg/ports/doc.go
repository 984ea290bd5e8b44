/*
Package ports defines the driven ports (interfaces) of the formwork engine.

These interfaces decouple the field engine from the concrete rule engine and
from the storage used to park the state of detached fields.

# Key Interfaces

  - Validator: evaluates opaque rules against field values (e.g. schema or playground).
  - RecoveryCache: keeps the record and metadata of detached fields until they come back.
*/
package ports
