package queryset

// tsxQuery extends typescriptQuery's capture vocabulary with JSX element
// references, since .tsx files mix TypeScript with JSX markup and need the
// dedicated tsx grammar (plain typescript's grammar rejects JSX syntax).
const tsxQuery = typescriptQuery + `
; ============================================================================
; JSX (tsx-only)
; ============================================================================

(jsx_opening_element name: (identifier) @reference.jsx_component)
(jsx_self_closing_element name: (identifier) @reference.jsx_component)
(jsx_attribute (property_identifier) @reference.jsx_prop)
(jsx_expression (identifier) @reference.read)
`
