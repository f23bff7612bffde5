package queryset

// pythonQuery implements spec.md §4.1's Python-specific additions:
// augmented/tuple/attribute/subscript assignments as writes, and `None` in
// type contexts (including `X | None` in both operand positions, matched
// by field name so the operator's textual form never matters).
const pythonQuery = `
; ============================================================================
; Scopes
; ============================================================================

(module) @scope
(function_definition body: (block) @scope)
(class_definition body: (block) @scope)
(for_statement body: (block) @scope)
(with_statement body: (block) @scope)
(try_statement) @scope

; ============================================================================
; Definitions
; ============================================================================

; function_definition captures as "function" regardless of nesting; the
; indexer reclassifies it to "method" when its enclosing scope is a
; class body (spec.md §4.1's scope-stack-aware construction algorithm),
; rather than trying to express that distinction in the query itself.
(function_definition name: (identifier) @definition.function)
(class_definition name: (identifier) @definition.class)

(parameters (identifier) @definition.parameter)
(typed_parameter (identifier) @definition.parameter)
(default_parameter name: (identifier) @definition.parameter)

(assignment left: (identifier) @definition.variable)
(assignment left: (pattern_list (identifier) @definition.variable))
(assignment left: (tuple_pattern (identifier) @definition.variable))

; ============================================================================
; References / Writes
; ============================================================================

(call function: (identifier) @reference.call)
(call function: (attribute attribute: (identifier) @reference.method_call))
(call function: (identifier) @reference.constructor_call
  (#match? @reference.constructor_call "^[A-Z]"))

(attribute object: (identifier) @reference.namespace_member attribute: (identifier))

(class_definition superclasses: (argument_list (identifier) @reference.type))

; A bare identifier passed as a call argument: either a function passed
; as a callback value, or a dict/collection variable being consumed
; (spec.md §4.4).
(argument_list (identifier) @reference.callback_arg)

(identifier) @reference.read

(augmented_assignment left: (identifier) @write)
(assignment left: (attribute) @write)
(assignment left: (subscript) @write)

; ============================================================================
; Imports
; ============================================================================

(import_statement name: (dotted_name) @import.source)
(import_from_statement module_name: (dotted_name) @import.source)
(import_from_statement module_name: (relative_import) @import.source)
(aliased_import name: (dotted_name) alias: (identifier) @import.alias)
(import_from_statement name: (dotted_name) @import.named)

; ============================================================================
; Types ("None" in type position, including "X | None" either side)
; ============================================================================

(type (none) @type.none)
(binary_operator left: (none) @type.none)
(binary_operator right: (none) @type.none)

; ============================================================================
; Docstrings / Decorators
; ============================================================================

(expression_statement (string) @definition.docstring)
(decorator) @definition.decorator
`
