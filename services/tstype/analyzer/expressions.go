// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"fmt"

	"github.com/AleutianAI/tstype/services/tstype/ast"
	"github.com/AleutianAI/tstype/services/tstype/types"
)

// resolveExpr infers the type of an expression and records it at the
// expression node.
//
// Literals keep their source text. Identifiers become references without
// a symbol lookup. Anything else records Unknown with a diagnostic.
func (v *fileVisit) resolveExpr(n *ast.Node) types.Type {
	var t types.Type
	switch n.Kind {
	case "number", "string", "true", "false", kindNull:
		t = types.NewLiteral(v.tree.Text(n))
	case kindIdentifier, kindUndefined:
		t = types.NewReference(v.tree.Text(n))
	default:
		v.unsupported(n, fmt.Sprintf("expression %s", n.Kind))
		t = types.Unknown{}
	}
	v.record(n, t)
	return t
}
