package annotations

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"unicode"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/mockable/internal/errors"
)

// argList is the participle grammar root for directive arguments
type argList struct {
	Entries []*argEntry `parser:"( @@ ( Comma @@ )* Comma? )?"`
}

type argEntry struct {
	Pos   lexer.Position
	Name  string    `parser:"@Ident ( @'.' @Ident )?"`
	Value *argValue `parser:"( Assign @@ )?"`
}

type argValue struct {
	Pos    lexer.Position
	Tokens []lexer.Token
	Terms  []*exprTerm `parser:"@@+"`
}

// exprTerm is one top level token of an expression. Commas and '=' end the
// expression unless they sit inside brackets.
type exprTerm struct {
	Group *exprGroup `parser:"  @@"`
	Token string     `parser:"| @( Ident | String | RawString | Char | Number | Op | Punct )"`
}

type exprGroup struct {
	Open  string       `parser:"@Open"`
	Inner []*groupTerm `parser:"@@*"`
	Close string       `parser:"@Close"`
}

type groupTerm struct {
	Group *exprGroup `parser:"  @@"`
	Token string     `parser:"| @( Ident | String | RawString | Char | Number | Op | Punct | Comma | Assign )"`
}

var argLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "RawString", Pattern: "`[^`]*`"},
	{Name: "Char", Pattern: `'(\\.|[^'\\])*'`},
	{Name: "Number", Pattern: `[0-9][0-9a-zA-Z_.]*`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Op", Pattern: `==|!=|<=|>=|:=|&&|\|\||<-|<<|>>|&\^|\.\.\.`},
	{Name: "Assign", Pattern: `=`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Open", Pattern: `[(\[{]`},
	{Name: "Close", Pattern: `[)\]}]`},
	{Name: "Punct", Pattern: `[-+*/%&|^<>!.:;~]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// DirectiveParser turns directive comments into Directives
type DirectiveParser struct {
	parser *participle.Parser[argList]
}

// NewDirectiveParser creates a new directive parser
func NewDirectiveParser() *DirectiveParser {
	return &DirectiveParser{
		parser: participle.MustBuild[argList](
			participle.Lexer(argLexer),
			participle.Elide("Whitespace"),
			participle.UseLookahead(2),
		),
	}
}

// IsDirective reports whether a comment line is a directive
func IsDirective(comment string) bool {
	return strings.HasPrefix(comment, DirectivePrefix)
}

// ParseDirective parses a single directive comment. loc is the position of
// the comment's leading "//"; every error is reported relative to it.
func (p *DirectiveParser) ParseDirective(comment string, loc SourceLocation) (*Directive, error) {
	if !IsDirective(comment) {
		return nil, errors.NewArgumentParseError("directive", fmt.Sprintf("comment does not start with %s", DirectivePrefix), loc)
	}

	body := comment[len(DirectivePrefix):]
	kindEnd := strings.IndexFunc(body, unicode.IsSpace)
	if kindEnd < 0 {
		kindEnd = len(body)
	}
	kindText := body[:kindEnd]

	kind, err := ParseDirectiveKind(kindText)
	if err != nil {
		perr := errors.NewArgumentParseError(kindText, err.Error(), shift(loc, len(DirectivePrefix)))
		perr.WithSuggestion("Valid directives are mockable, returns and generate")
		return nil, perr
	}

	argsOffset := len(DirectivePrefix) + kindEnd
	args, err := p.ParseArgs(kindText, comment[argsOffset:], shift(loc, argsOffset))
	if err != nil {
		return nil, err
	}

	return &Directive{
		Kind: kind,
		Args: args,
		Loc:  loc,
		Raw:  comment,
	}, nil
}

// ParseArgs parses an argument list. loc is the position of the first byte of input.
func (p *DirectiveParser) ParseArgs(directive, input string, loc SourceLocation) ([]Arg, error) {
	list, err := p.parser.ParseString(loc.File, input)
	if err != nil {
		if perr, ok := err.(participle.Error); ok {
			return nil, errors.NewArgumentParseError(directive, perr.Message(), shift(loc, perr.Position().Offset))
		}
		return nil, errors.NewArgumentParseError(directive, err.Error(), loc)
	}

	args := make([]Arg, 0, len(list.Entries))
	for _, entry := range list.Entries {
		arg := Arg{
			Name: entry.Name,
			Loc:  shift(loc, entry.Pos.Offset),
		}
		if entry.Value != nil {
			expr, err := parseValue(input, entry.Value, loc)
			if err != nil {
				return nil, err
			}
			arg.Value = expr
		}
		args = append(args, arg)
	}
	return args, nil
}

// ParseExpression parses Go expression text into an Expression handle. A
// parenthesized list such as (nil, io.EOF) becomes a tuple for methods with
// several results.
func ParseExpression(text string, loc SourceLocation) (*Expression, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseExprFrom(fset, loc.File, text, 0)
	if err == nil {
		return &Expression{Text: text, Node: node, Fset: fset, Loc: loc}, nil
	}
	if tuple, ok := parseTuple(fset, loc.File, text); ok {
		return &Expression{Text: text, Tuple: tuple, Fset: fset, Loc: loc}, nil
	}
	return nil, errors.NewExpressionParseError(text, loc, err)
}

// parseTuple reads "(a, b, ...)" by parsing the list as the elements of a
// composite literal
func parseTuple(fset *token.FileSet, filename, text string) ([]ast.Expr, bool) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 || trimmed[0] != '(' || trimmed[len(trimmed)-1] != ')' {
		return nil, false
	}
	node, err := parser.ParseExprFrom(fset, filename, "_{"+trimmed[1:len(trimmed)-1]+"}", 0)
	if err != nil {
		return nil, false
	}
	lit, ok := node.(*ast.CompositeLit)
	if !ok || len(lit.Elts) < 2 {
		return nil, false
	}
	for _, elt := range lit.Elts {
		if _, isKV := elt.(*ast.KeyValueExpr); isKV {
			return nil, false
		}
	}
	return lit.Elts, true
}

func parseValue(input string, value *argValue, base SourceLocation) (*Expression, error) {
	start := value.Pos.Offset
	end := start
	for _, tok := range value.Tokens {
		if tok.EOF() || strings.TrimSpace(tok.Value) == "" {
			continue
		}
		if e := tok.Pos.Offset + len(tok.Value); e > end {
			end = e
		}
	}
	text := strings.TrimSpace(input[start:end])
	return ParseExpression(text, shift(base, start))
}

func shift(loc SourceLocation, offset int) SourceLocation {
	if loc.Column > 0 {
		loc.Column += offset
	}
	return loc
}
