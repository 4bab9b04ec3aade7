// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

// Tree-sitter node kinds used by the declaration extractor.
//
// The javascript, typescript and tsx grammars share these names. Where the
// grammars have renamed a kind across releases both spellings are listed.
//
// Reference: https://github.com/tree-sitter/tree-sitter-javascript
// Reference: https://github.com/tree-sitter/tree-sitter-typescript
const (
	// Error nodes
	nodeError = "ERROR"

	// Declaration nodes
	nodeFunctionDeclaration          = "function_declaration"
	nodeGeneratorFunctionDeclaration = "generator_function_declaration"
	nodeClassDeclaration             = "class_declaration"
	nodeAbstractClassDeclaration     = "abstract_class_declaration"
	nodeVariableDeclarator           = "variable_declarator"

	// Expression nodes
	nodeFunctionExpression      = "function_expression"
	nodeFunctionExpressionOld   = "function"
	nodeGeneratorFunction       = "generator_function"
	nodeArrowFunction           = "arrow_function"
	nodeParenthesizedExpression = "parenthesized_expression"

	// Class body nodes
	nodeClassBody             = "class_body"
	nodeMethodDefinition      = "method_definition"
	nodePublicFieldDefinition = "public_field_definition"
	nodeFieldDefinition       = "field_definition"

	// Identifier nodes
	nodeIdentifier         = "identifier"
	nodeTypeIdentifier     = "type_identifier"
	nodePropertyIdentifier = "property_identifier"

	// Keyword tokens (anonymous nodes)
	tokenAsync  = "async"
	tokenStatic = "static"
	tokenGet    = "get"
	tokenSet    = "set"

	// tokenStaticGet is a single token when a newline follows "get".
	tokenStaticGet = "static get"

	// Field names
	fieldName     = "name"
	fieldBody     = "body"
	fieldValue    = "value"
	fieldProperty = "property"
)
