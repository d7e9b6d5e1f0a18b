package codegen

import (
	"github.com/rheehot/dsp/parser"
)

func (cg *CodeGen) genExpr(f *Frame, expr parser.Expr) (Value, error) {
	switch e := expr.(type) {
	case *parser.NumberExpr, *parser.StringExpr, *parser.BoolExpr,
		*parser.NoneExpr, *parser.EllipsisExpr, *parser.UnaryExpr:
		return cg.lowerLiteral(f, expr)
	case *parser.VarExpr:
		return cg.genVar(f, e)
	case *parser.BinaryExpr:
		return cg.lowerBinop(f, e)
	case *parser.CompareExpr:
		return cg.lowerCompare(f, e)
	case *parser.CallExpr:
		return cg.lowerCall(f, e)
	}
	return nil, newError(expr.Position(), ErrUnsupportedExpression, "%s is not supported", describeExpr(expr))
}

// describeExpr names an expression form for diagnostics.
func describeExpr(expr parser.Expr) string {
	switch e := expr.(type) {
	case *parser.NumberExpr:
		return "number " + e.Raw
	case *parser.StringExpr:
		return "string literal"
	case *parser.VarExpr:
		return "'" + e.Name + "'"
	case *parser.BoolExpr, *parser.NoneExpr, *parser.EllipsisExpr:
		return "constant"
	case *parser.BinaryExpr:
		return "binary '" + e.Op.String() + "' expression"
	case *parser.UnaryExpr:
		return "unary '" + e.Op.String() + "' expression"
	case *parser.CompareExpr:
		return "comparison"
	case *parser.BoolOpExpr:
		return "boolean '" + e.Op.String() + "' expression"
	case *parser.CallExpr:
		return "call result"
	case *parser.AttributeExpr:
		return "attribute '" + e.Attr + "'"
	case *parser.ListExpr:
		return "list display"
	case *parser.LambdaExpr:
		return "lambda"
	}
	return "expression"
}
