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

// FunctionKind distinguishes function declarations/expressions from arrows.
type FunctionKind string

const (
	FunctionKindFunction FunctionKind = "function"
	FunctionKindArrow    FunctionKind = "arrow"
)

// MethodKind is the accessor role of a class method.
type MethodKind string

const (
	MethodKindMethod      MethodKind = "method"
	MethodKindGetter      MethodKind = "get"
	MethodKindSetter      MethodKind = "set"
	MethodKindConstructor MethodKind = "constructor"
)

// AnalysisResult is the document printed at the end of a run.
type AnalysisResult struct {
	// Files is in directory-walk order.
	Files []*FileReport `json:"files"`
}

// NewAnalysisResult returns an empty result whose Files encodes as [].
func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{Files: make([]*FileReport, 0)}
}

// FileReport holds the declarations found in one file.
//
// Description:
//
//	Path is the path as it was handed to the analyzer, not normalized.
//	Functions and Classes are in pre-order encounter order and are never
//	nil, so they encode as [] when empty.
type FileReport struct {
	Path      string           `json:"path"`
	Functions []FunctionRecord `json:"functions"`
	Classes   []ClassRecord    `json:"classes"`
}

func newFileReport(path string) *FileReport {
	return &FileReport{
		Path:      path,
		Functions: make([]FunctionRecord, 0),
		Classes:   make([]ClassRecord, 0),
	}
}

// FunctionRecord is a named function declaration or a variable bound to a
// function or arrow expression.
type FunctionRecord struct {
	Name    string       `json:"name"`
	Kind    FunctionKind `json:"type"`
	IsAsync bool         `json:"async"`
}

// ClassRecord is a class declaration and its method-like members.
type ClassRecord struct {
	Name    string         `json:"name"`
	Methods []MethodRecord `json:"methods"`
}

// MethodRecord is an ordinary method, getter, setter or constructor.
type MethodRecord struct {
	Name     string     `json:"name"`
	Kind     MethodKind `json:"type"`
	IsStatic bool       `json:"static"`
	IsAsync  bool       `json:"async"`
}
