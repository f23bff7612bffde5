package queryset

// javascriptQuery captures definitions, references, scopes, and imports for
// plain JavaScript/JSX source. JSX elements are captured the same way as
// tsx.go since the javascript grammar itself supports JSX.
const javascriptQuery = `
; ============================================================================
; Scopes
; ============================================================================

(program) @scope
(function_declaration body: (statement_block) @scope)
(function_expression body: (statement_block) @scope)
(arrow_function body: (statement_block) @scope)
(method_definition body: (statement_block) @scope)
(class_body) @scope
(statement_block) @scope
(for_statement) @scope
(for_in_statement) @scope
(catch_clause) @scope

; ============================================================================
; Definitions
; ============================================================================

(function_declaration name: (identifier) @definition.function)
(class_declaration name: (identifier) @definition.class)
(method_definition name: (property_identifier) @definition.method)
(field_definition property: (property_identifier) @definition.property)

(variable_declarator name: (identifier) @definition.variable)
(lexical_declaration (variable_declarator name: (identifier) @definition.constant))

(formal_parameters (identifier) @definition.parameter)

; ============================================================================
; References
; ============================================================================

(call_expression function: (identifier) @reference.call)
(call_expression function: (member_expression property: (property_identifier) @reference.method_call))
(new_expression constructor: (identifier) @reference.constructor_call)

(member_expression object: (identifier) @reference.namespace_member property: (property_identifier))

(class_heritage (identifier) @reference.type)

; See typescript.go's matching patterns for why these are split out from
; the blanket (identifier) @reference.read below.
(pair value: (identifier) @reference.collection_entry)
(spread_element (identifier) @reference.collection_merge)
(arguments (identifier) @reference.callback_arg)

(identifier) @reference.read
(assignment_expression left: (identifier) @write)
(update_expression argument: (identifier) @write)

; ============================================================================
; Imports / Exports
; ============================================================================

(import_specifier name: (identifier) @import.named)
(import_specifier name: (identifier) alias: (identifier) @import.alias)
(namespace_import (identifier) @import.namespace)
(import_clause (identifier) @import.default)
(import_statement source: (string) @import.source)

(export_specifier name: (identifier) @import.reexport_named)
(export_specifier name: (identifier) alias: (identifier) @import.reexport_alias)
(export_statement source: (string) @import.reexport_source)

; ============================================================================
; JSX
; ============================================================================

(jsx_opening_element name: (identifier) @reference.jsx_component)
(jsx_self_closing_element name: (identifier) @reference.jsx_component)
(jsx_attribute (property_identifier) @reference.jsx_prop)

; ============================================================================
; Docstrings
; ============================================================================

(comment) @definition.docstring
`
