// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package asset

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/olegiv/primer-go/internal/pagectx"
)

// Variables available to When expressions.
const (
	VarHome           = "home"
	VarSingle         = "single"
	VarPage           = "page"
	VarSingular       = "singular"
	VarArchive        = "archive"
	VarAuthor         = "author"
	VarCommentsOpen   = "comments_open"
	VarThreadComments = "thread_comments"
	VarTemplate       = "template"
)

func newConditionEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable(VarHome, cel.BoolType),
		cel.Variable(VarSingle, cel.BoolType),
		cel.Variable(VarPage, cel.BoolType),
		cel.Variable(VarSingular, cel.BoolType),
		cel.Variable(VarArchive, cel.BoolType),
		cel.Variable(VarAuthor, cel.BoolType),
		cel.Variable(VarCommentsOpen, cel.BoolType),
		cel.Variable(VarThreadComments, cel.BoolType),
		cel.Variable(VarTemplate, cel.StringType),
	)
}

func compileCondition(env *cel.Env, expr string) (cel.Program, error) {
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidCondition, expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: %q evaluates to %s, not bool", ErrInvalidCondition, expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidCondition, expr, err)
	}
	return prg, nil
}

func conditionVars(pctx pagectx.Context) map[string]any {
	return map[string]any{
		VarHome:           pctx.IsHome(),
		VarSingle:         pctx.IsSingle(),
		VarPage:           pctx.IsPage(),
		VarSingular:       pctx.IsSingular(),
		VarArchive:        pctx.IsArchive(),
		VarAuthor:         pctx.IsAuthor(),
		VarCommentsOpen:   pctx.HasComments(),
		VarThreadComments: pctx.ThreadedCommentsEnabled(),
		VarTemplate:       pagectx.NormalizeTemplate(pctx.Template),
	}
}

func evalCondition(prg cel.Program, vars map[string]any) (bool, error) {
	out, _, err := prg.Eval(vars)
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition returned %T", out.Value())
	}
	return b, nil
}
