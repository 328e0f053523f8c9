// Package codec turns bound form instances into UI documents and validates
// submissions against the render they came from.
//
// Serialize walks an instance in registry order, builds the schema, the
// ordered render list and the flat value model, and stores a snapshot of the
// offered field names in a formcache.Cache under the key it injects as
// model.form_key. Deserialize looks that snapshot up again, rejects payloads
// carrying fields that were never offered, and only then binds values.
package codec
