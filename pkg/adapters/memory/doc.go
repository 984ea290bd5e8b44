// Package memory provides in-process adapters for the formwork ports.
package memory
