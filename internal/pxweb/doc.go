// Package pxweb fetches px documents from data-source endpoints.
//
// A data source serves a JSON object of the form
//
//	{ "pxdocs": [ {"name": ..., "headings": [...], "stubs": [...], "levels": {...}}, ... ] }
//
// The singular "heading" and "stub" keys are accepted as well. Every decoded
// dataset is validated: each heading and stub must have a levels entry.
//
// Requests carry an Accept: application/json header and a pxbrowse
// User-Agent, run with the caller's context, and are bounded by the client
// timeout. Status codes of 400 and above, malformed JSON and a missing pxdocs
// key are returned as errors; callers decide how to surface them.
package pxweb
