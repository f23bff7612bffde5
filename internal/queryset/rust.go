package queryset

// rustQuery captures definitions, references, scopes, and imports (`use`
// declarations) for Rust source.
const rustQuery = `
; ============================================================================
; Scopes
; ============================================================================

(source_file) @scope
(function_item body: (block) @scope)
(impl_item body: (declaration_list) @scope)
(trait_item body: (declaration_list) @scope)
(mod_item body: (declaration_list) @scope)
(block) @scope
(for_expression body: (block) @scope)
(match_arm) @scope

; ============================================================================
; Definitions
; ============================================================================

(function_item name: (identifier) @definition.function)
(struct_item name: (type_identifier) @definition.class)
(enum_item name: (type_identifier) @definition.enum)
(enum_variant name: (identifier) @definition.enum_member)
(trait_item name: (type_identifier) @definition.interface)
(type_item name: (type_identifier) @definition.type_alias)
(mod_item name: (identifier) @definition.namespace)
(const_item name: (identifier) @definition.constant)
(static_item name: (identifier) @definition.constant)

(field_declaration name: (field_identifier) @definition.property)

(parameter pattern: (identifier) @definition.parameter)
(self_parameter) @definition.parameter

(let_declaration pattern: (identifier) @definition.variable)

; ============================================================================
; References
; ============================================================================

(call_expression function: (identifier) @reference.call)
(call_expression function: (field_expression field: (field_identifier) @reference.method_call))
(call_expression function: (scoped_identifier name: (identifier) @reference.call))

(struct_expression name: (type_identifier) @reference.constructor_call)

(field_expression value: (identifier) @reference.namespace_member field: (field_identifier))

(impl_item trait: (type_identifier) @reference.type)

; A bare identifier passed as a call argument: a function passed as a
; callback value (spec.md §4.4).
(arguments (identifier) @reference.callback_arg)

(identifier) @reference.read
(type_identifier) @reference.type

(assignment_expression left: (identifier) @write)
(compound_assignment_expr left: (identifier) @write)

; ============================================================================
; Imports
; ============================================================================

(use_declaration argument: (scoped_identifier) @import.source)
(use_declaration argument: (use_as_clause path: (_) @import.source alias: (identifier) @import.alias))
(use_declaration argument: (use_list (identifier) @import.named))
(use_declaration argument: (scoped_use_list path: (_) @import.source list: (use_list (identifier) @import.named)))
(use_wildcard) @import.namespace

; ============================================================================
; Attributes / Docs
; ============================================================================

(attribute_item) @definition.decorator
(line_comment) @definition.docstring
`
