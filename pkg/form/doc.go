// Package form declares form definitions and binds them into request-scoped
// instances. A Definition is an explicit, ordered table of Field descriptors
// built once through Define(...).Field(...).Build(); an Instance is created per
// request with Definition.New and owns copies of those descriptors, the current
// values, the action-only (button) field list and a non-owning reference to the
// acting user. Nested sub-forms (Node) and repeating groups (ListNode) are bound
// into fresh nested instances so two requests never share nested state.
package form
