// Package when evaluates the when conditions of data nodes once a data tree
// is complete.
//
// The default evaluator uses expr-lang expressions instead of XPath. The
// environment of an expression is the context node of the condition, the
// data parent of the node carrying it: every child of the context node is a
// variable named after it. Leaves are strings, leaf-lists lists of strings,
// containers maps and lists lists of maps, all built the same way.
//
//	type == 'ex:eth' && mtu != nil
package when

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/signadot/lyb-format/go-lyb/schema"
	"github.com/signadot/lyb-format/go-lyb/tree"
)

// Evaluator evaluates cond for the data node n of a complete forest.
type Evaluator interface {
	Eval(cond string, n *tree.Node, forest []*tree.Node) (bool, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(cond string, n *tree.Node, forest []*tree.Node) (bool, error)

func (f EvaluatorFunc) Eval(cond string, n *tree.Node, forest []*tree.Node) (bool, error) {
	return f(cond, n, forest)
}

// ExprEvaluator is the expr-lang Evaluator.
type ExprEvaluator struct{}

func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{}
}

func (e *ExprEvaluator) Eval(cond string, n *tree.Node, forest []*tree.Node) (bool, error) {
	var env map[string]any
	if n.Parent != nil {
		env = Env(n.Parent.Children)
	} else {
		env = Env(forest)
	}
	program, err := expr.Compile(cond, append(exprOpts(n, forest), expr.Env(env), expr.AllowUndefinedVariables(), expr.AsBool())...)
	if err != nil {
		return false, fmt.Errorf("could not compile when %q: %w", cond, err)
	}
	res, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("error evaluating when %q: %w", cond, err)
	}
	b, ok := res.(bool)
	if !ok {
		return false, fmt.Errorf("when %q gave %T, not a boolean", cond, res)
	}
	return b, nil
}

func exprOpts(n *tree.Node, forest []*tree.Node) []expr.Option {
	return []expr.Option{
		expr.Function("whereami", func(params ...any) (any, error) {
			return n.Path(), nil
		},
			new(func() string)),
		expr.Function("exists", func(params ...any) (any, error) {
			res, err := tree.Select(n, params[0].(string), forest)
			if err != nil {
				return nil, err
			}
			return len(res) > 0, nil
		},
			new(func(string) bool)),
		expr.Function("value", func(params ...any) (any, error) {
			res, err := tree.Select(n, params[0].(string), forest)
			if err != nil {
				return nil, err
			}
			for _, r := range res {
				if r.Schema.IsTerm() {
					return r.Value, nil
				}
			}
			return "", nil
		},
			new(func(string) string)),
	}
}

// Env builds the expression environment of a sibling list.
func Env(siblings []*tree.Node) map[string]any {
	env := make(map[string]any, len(siblings))
	for _, c := range siblings {
		name := c.Schema.Name
		switch c.Schema.Kind {
		case schema.KindLeaf:
			env[name] = c.Value
		case schema.KindLeafList:
			l, _ := env[name].([]any)
			env[name] = append(l, c.Value)
		case schema.KindList:
			l, _ := env[name].([]any)
			env[name] = append(l, Env(c.Children))
		case schema.KindAnydata, schema.KindAnyxml:
			env[name] = c.Any.Value
		default:
			env[name] = Env(c.Children)
		}
	}
	return env
}
