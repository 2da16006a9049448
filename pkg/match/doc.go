// Package match implements the keyword matching engine shared by the
// specialist responders and the orchestrator's domain classifier.
//
// Matching is substring based over a normalized form of the query
// (lowercased, diacritics stripped, punctuation removed, whitespace
// collapsed). Every rule is scored by how many of its keywords occur in the
// normalized query; the highest count wins and ties are broken by table
// order, earliest rule first. A query that matches nothing is not an error:
// callers fall back to the table's designated fallback response.
package match
