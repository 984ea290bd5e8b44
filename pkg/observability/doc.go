/*
Package observability provides tools for monitoring formwork forms.

It turns the validation and store hooks of a form into Prometheus metrics and
structured log records. Both are plain domain.Hooks values and can be merged.
*/
package observability
