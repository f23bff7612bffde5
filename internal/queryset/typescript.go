package queryset

// typescriptQuery captures definitions, references, scopes, and imports for
// TypeScript source (no JSX — see tsx.go for the TSX variant).
const typescriptQuery = `
; ============================================================================
; Scopes
; ============================================================================

(program) @scope
(function_declaration body: (statement_block) @scope)
(function_expression body: (statement_block) @scope)
(arrow_function body: (statement_block) @scope)
(method_definition body: (statement_block) @scope)
(internal_module body: (statement_block) @scope)
(class_body) @scope
(statement_block) @scope
(for_statement) @scope
(for_in_statement) @scope
(catch_clause) @scope

; ============================================================================
; Definitions
; ============================================================================

(function_declaration name: (identifier) @definition.function)
(class_declaration name: (type_identifier) @definition.class)
(interface_declaration name: (type_identifier) @definition.interface)
(enum_declaration name: (identifier) @definition.enum)
(enum_body (property_identifier) @definition.enum_member)
(type_alias_declaration name: (type_identifier) @definition.type_alias)
(internal_module name: (identifier) @definition.namespace)

(method_definition name: (property_identifier) @definition.method)
(public_field_definition name: (property_identifier) @definition.property)

(variable_declarator name: (identifier) @definition.variable)
(lexical_declaration (variable_declarator name: (identifier) @definition.constant))

(required_parameter pattern: (identifier) @definition.parameter)
(optional_parameter pattern: (identifier) @definition.parameter)

; ============================================================================
; References
; ============================================================================

(call_expression function: (identifier) @reference.call)
(call_expression function: (member_expression property: (property_identifier) @reference.method_call))
(new_expression constructor: (identifier) @reference.constructor_call)

(member_expression object: (identifier) @reference.namespace_member property: (property_identifier))

(class_heritage (extends_clause value: (_) @reference.type))
(class_heritage (implements_clause (type_identifier) @reference.type))

; A function value stored into an object literal assigned to a variable
; (spec.md §4.4's "collection of handlers"), a spread-merge of one such
; object into another, and a bare identifier passed as a call argument
; (no call parens: a callback value, or a collection being consumed).
; The indexer resolves the enclosing collection/variable name from each
; capture's own ancestors rather than correlating separate captures.
(pair value: (identifier) @reference.collection_entry)
(spread_element (identifier) @reference.collection_merge)
(arguments (identifier) @reference.callback_arg)

(identifier) @reference.read
(type_identifier) @reference.type

(assignment_expression left: (identifier) @write)
(update_expression argument: (identifier) @write)

; ============================================================================
; Imports / Exports
; ============================================================================

(import_specifier name: (identifier) @import.named)
(import_specifier name: (identifier) @import.named alias: (identifier) @import.alias)
(namespace_import (identifier) @import.namespace)
(import_clause (identifier) @import.default)
(import_statement source: (string) @import.source)

(export_specifier name: (identifier) @import.reexport_named)
(export_specifier name: (identifier) alias: (identifier) @import.reexport_alias)
(export_statement source: (string) @import.reexport_source)

; ============================================================================
; Decorators / Docstrings
; ============================================================================

(decorator) @definition.decorator
(comment) @definition.docstring
`
